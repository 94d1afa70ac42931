package repository

import (
	"context"
	"fmt"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/database"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

type TransactionRepository struct {
	q queryable
}

func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO transactions (user_id, balance_before, balance_after, change_amount, name, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		txn.UserID,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.ChangeAmount,
		txn.Name,
		txn.Metadata,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}
