package service

import (
	"context"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

// UserRepository is the account store. Lookups return nil without error
// when no row matches.
type UserRepository interface {
	// GetByUsername matches exactly first, then case-insensitively.
	GetByUsername(ctx context.Context, name string) (*models.User, error)
	// GetByUsernameForUpdate locks the account row for the enclosing
	// transaction.
	GetByUsernameForUpdate(ctx context.Context, name string) (*models.User, error)
	GetBySessionToken(ctx context.Context, token string) (*models.User, error)
	Usernames(ctx context.Context) ([]string, error)
	UpdateBalance(ctx context.Context, userID, newBalance int64) error
	SetSessionToken(ctx context.Context, userID int64, token string) error
}

type BetLogRepository interface {
	// GetByBetUID returns nil when the round reference is unseen.
	GetByBetUID(ctx context.Context, betUID string) (*models.BetLog, error)
	Create(ctx context.Context, log *models.BetLog) error
}

type TransactionRepository interface {
	Record(ctx context.Context, txn *models.Transaction) error
}

// UnitOfWork groups the repositories over one database handle, either
// the shared pool or a single transaction.
type UnitOfWork interface {
	Users() UserRepository
	BetLogs() BetLogRepository
	Transactions() TransactionRepository
}

// UnitOfWorkFactory hands out units of work. WithTransaction commits
// when fn returns nil and rolls back otherwise.
type UnitOfWorkFactory interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	Unscoped() UnitOfWork
}
