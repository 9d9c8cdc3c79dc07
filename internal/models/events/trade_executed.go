package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeExecuted is published after a buy or sell has committed.
type TradeExecuted struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Symbol        string          `json:"symbol"`
	Shares        int64           `json:"shares"`
	Price         decimal.Decimal `json:"price"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
