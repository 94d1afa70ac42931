package models

import (
	"time"
)

// User is a player account in the site ledger. Balance is kept in whole
// game units, matching the integer amounts on the provider wire.
type User struct {
	ID           int64     `db:"id"`
	UserName     string    `db:"user_name"`
	AgentID      *int64    `db:"agent_id"`
	AgentName    string    `db:"agent_name"`
	Balance      int64     `db:"balance"`
	SessionToken *string   `db:"session_token"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
