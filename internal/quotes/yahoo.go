package quotes

import (
	"context"
	"fmt"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// YahooSource resolves quotes via Yahoo Finance. It needs no API key.
type YahooSource struct{}

func NewYahooSource() *YahooSource {
	return &YahooSource{}
}

func (y *YahooSource) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return models.Quote{}, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return models.Quote{}, models.ErrSymbolNotFound
	}

	name := q.ShortName
	if name == "" {
		name = symbol
	}

	return models.Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.NewFromFloat(q.RegularMarketPrice),
	}, nil
}

var _ interfaces.QuoteSource = (*YahooSource)(nil)
