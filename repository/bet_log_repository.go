package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/database"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

// Postgres unique_violation, raised when a concurrent settlement won the
// race on the bet_uid unique index.
const uniqueViolation = "23505"

const betLogColumns = "id, bet_uid, member_account, player_id, agent_id, agent_name, game_id, " +
	"bet_amount, win_amount, change_amount, balance_before, balance_after, result, payload, created_at"

type BetLogRepository struct {
	q queryable
}

func NewBetLogRepository(db *database.DB) *BetLogRepository {
	return &BetLogRepository{q: db.Pool}
}

func newBetLogRepositoryWithTx(tx queryable) *BetLogRepository {
	return &BetLogRepository{q: tx}
}

// GetByBetUID returns the prior settlement for a round reference, or nil
// when the round has not been seen.
func (r *BetLogRepository) GetByBetUID(ctx context.Context, betUID string) (*models.BetLog, error) {
	var l models.BetLog
	err := r.q.QueryRow(ctx,
		"SELECT "+betLogColumns+" FROM bet_logs WHERE bet_uid = $1", betUID).Scan(
		&l.ID,
		&l.BetUID,
		&l.MemberAccount,
		&l.PlayerID,
		&l.AgentID,
		&l.AgentName,
		&l.GameID,
		&l.BetAmount,
		&l.WinAmount,
		&l.ChangeAmount,
		&l.BalanceBefore,
		&l.BalanceAfter,
		&l.Result,
		&l.Payload,
		&l.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bet log %q: %w", betUID, err)
	}
	return &l, nil
}

func (r *BetLogRepository) Create(ctx context.Context, log *models.BetLog) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO bet_logs (bet_uid, member_account, player_id, agent_id, agent_name, game_id,
		 bet_amount, win_amount, change_amount, balance_before, balance_after, result, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at`,
		log.BetUID,
		log.MemberAccount,
		log.PlayerID,
		log.AgentID,
		log.AgentName,
		log.GameID,
		log.BetAmount,
		log.WinAmount,
		log.ChangeAmount,
		log.BalanceBefore,
		log.BalanceAfter,
		log.Result,
		log.Payload,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			betUID := ""
			if log.BetUID != nil {
				betUID = *log.BetUID
			}
			return fmt.Errorf("%w: bet_uid %q", service.ErrDuplicateRound, betUID)
		}
		return fmt.Errorf("create bet log: %w", err)
	}
	return nil
}
