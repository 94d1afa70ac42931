package models

import (
	"time"
)

// Result is the settled outcome of one provider round.
type Result string

const (
	ResultWin  Result = "Win"
	ResultLose Result = "Lose"
	ResultDraw Result = "Draw"
)

// ResultFor derives the outcome from the signed balance delta.
func ResultFor(change int64) Result {
	switch {
	case change > 0:
		return ResultWin
	case change < 0:
		return ResultLose
	default:
		return ResultDraw
	}
}

// BetLog records one settled provider round against a player. BetUID is
// the provider's round reference and carries the idempotency guarantee;
// rounds reported without one are logged but cannot be deduplicated.
type BetLog struct {
	ID            int64          `db:"id"`
	BetUID        *string        `db:"bet_uid"`
	MemberAccount string         `db:"member_account"`
	PlayerID      int64          `db:"player_id"`
	AgentID       *int64         `db:"agent_id"`
	AgentName     string         `db:"agent_name"`
	GameID        int            `db:"game_id"`
	BetAmount     int64          `db:"bet_amount"`
	WinAmount     int64          `db:"win_amount"`
	ChangeAmount  int64          `db:"change_amount"`
	BalanceBefore int64          `db:"balance_before"`
	BalanceAfter  int64          `db:"balance_after"`
	Result        Result         `db:"result"`
	Payload       map[string]any `db:"payload"`
	CreatedAt     time.Time      `db:"created_at"`
}
