package domain

import (
	"time"

	"github.com/google/uuid"
)

// BankAction is the ledger entry kind for the nation treasury history.
type BankAction string

const (
	BankDeposit  BankAction = "DEPOSIT"
	BankWithdraw BankAction = "WITHDRAW"
	BankLevelUp  BankAction = "LEVEL_UP"
)

// BankEntry is one row of the nation treasury history.
type BankEntry struct {
	ID        int64      `json:"id"`
	NationID  int64      `json:"nation_id"`
	Action    BankAction `json:"action"`
	Amount    int64      `json:"amount"`
	ActorUUID uuid.UUID  `json:"actor_uuid"`
	CreatedAt time.Time  `json:"created_at"`
}

// LevelInfo summarizes a nation's progression and the cost of the next level.
type LevelInfo struct {
	Level         int   `json:"level"`
	Exp           int64 `json:"exp"`
	BankBalance   int64 `json:"bank_balance"`
	NextExpCost   int64 `json:"next_exp_cost"`
	NextMoneyCost int64 `json:"next_money_cost"`
	MaxLevel      int   `json:"max_level"`
}
