package interfaces

import (
	"context"

	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// QuoteSource resolves a symbol to its current market price and display
// name. Lookups are side-effect-free; an unresolvable symbol is reported
// as models.ErrSymbolNotFound.
type QuoteSource interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}
