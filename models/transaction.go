package models

import (
	"time"
)

// TransactionName classifies a balance change in the history table.
type TransactionName string

const (
	TransactionGameWin         TransactionName = "game_win"
	TransactionGameLoss        TransactionName = "game_loss"
	TransactionCreditTransfer  TransactionName = "credit_transfer"
	TransactionCapitalDeposit  TransactionName = "capital_deposit"
	TransactionCapitalWithdraw TransactionName = "capital_withdraw"
)

// Transaction is one row of the append-only balance history.
type Transaction struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	BalanceBefore int64           `db:"balance_before"`
	BalanceAfter  int64           `db:"balance_after"`
	ChangeAmount  int64           `db:"change_amount"`
	Name          TransactionName `db:"name"`
	Metadata      map[string]any  `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
}

// NameFor picks the history classification for a signed game delta.
// Zero goes down the withdraw path with the losses.
func NameFor(change int64) TransactionName {
	if change > 0 {
		return TransactionGameWin
	}
	return TransactionGameLoss
}
