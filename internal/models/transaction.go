package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single immutable record in the append-only trade log.
// Shares is signed: positive for a buy, negative for a sell. Seq is
// assigned by the store, strictly increasing, and is the canonical
// ordering key for a user's history.
type Transaction struct {
	Seq        int64           `json:"seq" db:"seq"`
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Symbol     string          `json:"symbol" db:"symbol"`
	Name       string          `json:"name" db:"name"`
	Shares     int64           `json:"shares" db:"shares"`
	Price      decimal.Decimal `json:"price" db:"price"`
	ExecutedAt time.Time       `json:"executed_at" db:"executed_at"`
}
