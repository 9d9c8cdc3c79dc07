package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/ledger"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// PortfolioHandler serves the portfolio and history projections.
type PortfolioHandler struct {
	ledger *ledger.Ledger
}

func NewPortfolioHandler(l *ledger.Ledger) *PortfolioHandler {
	return &PortfolioHandler{ledger: l}
}

type position struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Shares    int64           `json:"shares"`
	LastPrice decimal.Decimal `json:"last_price"`
	Value     decimal.Decimal `json:"value"`
}

type portfolioResponse struct {
	Positions []position      `json:"positions"`
	Cash      decimal.Decimal `json:"cash"`
	Total     decimal.Decimal `json:"total"`
}

// Portfolio returns the user's current positions, cash and total
// valuation. Sold-out positions are not included.
// GET /users/{id}/portfolio
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	account, err := h.ledger.Account(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	holdings, err := h.ledger.Holdings(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := portfolioResponse{
		Positions: make([]position, 0, len(holdings)),
		Cash:      account.Cash,
		Total:     account.Cash,
	}
	for _, hold := range holdings {
		value := hold.LastPrice.Mul(decimal.NewFromInt(hold.Shares))
		resp.Positions = append(resp.Positions, position{
			Symbol:    hold.Symbol,
			Name:      hold.Name,
			Shares:    hold.Shares,
			LastPrice: hold.LastPrice,
			Value:     value,
		})
		resp.Total = resp.Total.Add(value)
	}
	writeJSON(w, http.StatusOK, resp)
}

// History returns every transaction for the user, oldest first.
// GET /users/{id}/history
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	// 404 for unknown users rather than an empty history.
	if _, err := h.ledger.Account(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	history, err := h.ledger.History(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, history)
}
