package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/database"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

type unitOfWork struct {
	users        *UserRepository
	betLogs      *BetLogRepository
	transactions *TransactionRepository
}

func newUnitOfWork(q queryable) *unitOfWork {
	return &unitOfWork{
		users:        newUserRepositoryWithTx(q),
		betLogs:      newBetLogRepositoryWithTx(q),
		transactions: newTransactionRepositoryWithTx(q),
	}
}

func (u *unitOfWork) Users() service.UserRepository               { return u.users }
func (u *unitOfWork) BetLogs() service.BetLogRepository           { return u.betLogs }
func (u *unitOfWork) Transactions() service.TransactionRepository { return u.transactions }

type unitOfWorkFactory struct {
	db *database.DB
}

func NewUnitOfWorkFactory(db *database.DB) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

// WithTransaction runs fn with repositories bound to one transaction.
func (f *unitOfWorkFactory) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow service.UnitOfWork) error) error {
	return f.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, newUnitOfWork(tx))
	})
}

// Unscoped returns repositories bound to the shared pool for reads that
// need no transactional guarantees.
func (f *unitOfWorkFactory) Unscoped() service.UnitOfWork {
	return newUnitOfWork(f.db.Pool)
}
