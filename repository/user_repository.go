package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/database"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

const userColumns = "id, user_name, agent_id, agent_name, balance, session_token, created_at, updated_at"

type UserRepository struct {
	q queryable
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func (r *UserRepository) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.UserName,
		&u.AgentID,
		&u.AgentName,
		&u.Balance,
		&u.SessionToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername matches the exact spelling first, then falls back to a
// case-insensitive match. Provider callbacks sometimes re-case usernames
// that round-tripped through the uid encoding.
func (r *UserRepository) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	u, err := r.scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_name = $1", name))
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", name, err)
	}
	if u != nil {
		return u, nil
	}
	u, err = r.scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(user_name) = LOWER($1)", name))
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", name, err)
	}
	return u, nil
}

func (r *UserRepository) GetByUsernameForUpdate(ctx context.Context, name string) (*models.User, error) {
	u, err := r.scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_name = $1 FOR UPDATE", name))
	if err != nil {
		return nil, fmt.Errorf("lock user %q: %w", name, err)
	}
	if u != nil {
		return u, nil
	}
	u, err = r.scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(user_name) = LOWER($1) FOR UPDATE", name))
	if err != nil {
		return nil, fmt.Errorf("lock user %q: %w", name, err)
	}
	return u, nil
}

func (r *UserRepository) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	u, err := r.scanUser(r.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE session_token = $1", token))
	if err != nil {
		return nil, fmt.Errorf("get user by session token: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Usernames(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx,
		"SELECT user_name FROM users WHERE user_name <> '' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}

func (r *UserRepository) Create(ctx context.Context, name string, agentID *int64, agentName string, balance int64) (*models.User, error) {
	u, err := r.scanUser(r.q.QueryRow(ctx,
		`INSERT INTO users (user_name, agent_id, agent_name, balance)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns, name, agentID, agentName, balance))
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", name, err)
	}
	return u, nil
}

func (r *UserRepository) UpdateBalance(ctx context.Context, userID, newBalance int64) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2", newBalance, userID)
	if err != nil {
		return fmt.Errorf("update balance for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update balance: user %d not found", userID)
	}
	return nil
}

func (r *UserRepository) SetSessionToken(ctx context.Context, userID int64, token string) error {
	tag, err := r.q.Exec(ctx,
		"UPDATE users SET session_token = $1, updated_at = NOW() WHERE id = $2", token, userID)
	if err != nil {
		return fmt.Errorf("set session token for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set session token: user %d not found", userID)
	}
	return nil
}
