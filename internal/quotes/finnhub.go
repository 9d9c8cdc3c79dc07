package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// DefaultFinnhubBaseURL is the production Finnhub API endpoint.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubSource resolves quotes against the Finnhub REST API.
type FinnhubSource struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubSource creates a Finnhub quote source. baseURL is normally
// DefaultFinnhubBaseURL; tests point it at a local server.
func NewFinnhubSource(baseURL, apiKey string) *FinnhubSource {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)

	return &FinnhubSource{
		client: client,
		apiKey: apiKey,
	}
}

// Lookup fetches the current price from /quote and the company name from
// /stock/profile2. Finnhub reports unknown symbols as all-zero quotes,
// which maps to models.ErrSymbolNotFound.
func (f *FinnhubSource) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	var q struct {
		Current float64 `json:"c"`
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  f.apiKey,
		}).
		SetResult(&q).
		Get("/quote")
	if err != nil {
		return models.Quote{}, fmt.Errorf("quote lookup for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return models.Quote{}, fmt.Errorf("quote lookup for %s: %s", symbol, resp.Status())
	}
	if q.Current <= 0 {
		return models.Quote{}, models.ErrSymbolNotFound
	}

	var profile struct {
		Name string `json:"name"`
	}
	resp, err = f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  f.apiKey,
		}).
		SetResult(&profile).
		Get("/stock/profile2")
	if err != nil {
		return models.Quote{}, fmt.Errorf("profile lookup for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return models.Quote{}, fmt.Errorf("profile lookup for %s: %s", symbol, resp.Status())
	}

	name := profile.Name
	if name == "" {
		name = symbol
	}

	return models.Quote{
		Symbol: symbol,
		Name:   name,
		Price:  decimal.NewFromFloat(q.Current),
	}, nil
}

var _ interfaces.QuoteSource = (*FinnhubSource)(nil)
