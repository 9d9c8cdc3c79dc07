package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's identity and current cash balance.
// Cash starts at the configured amount and is only ever changed by the
// ledger as a side effect of a committed trade.
type Account struct {
	ID        string          `json:"id" db:"id"`
	Username  string          `json:"username" db:"username"`
	Cash      decimal.Decimal `json:"cash" db:"cash"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
