package models

import "github.com/shopspring/decimal"

// Holding is a derived position: the net share count for one symbol plus
// the price seen on the user's most recent transaction for it. It is
// never stored; the ledger recomputes it from the transaction log.
type Holding struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Shares    int64           `json:"shares"`
	LastPrice decimal.Decimal `json:"last_price"`
}
