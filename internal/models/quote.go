package models

import "github.com/shopspring/decimal"

// Quote is the externally supplied market price and display name for a
// symbol at the moment of lookup.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
