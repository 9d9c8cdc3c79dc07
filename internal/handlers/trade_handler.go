package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HAMZA310/Plowman-Finance/internal/ledger"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// TradeHandler serves buy and sell requests.
type TradeHandler struct {
	ledger *ledger.Ledger
}

func NewTradeHandler(l *ledger.Ledger) *TradeHandler {
	return &TradeHandler{ledger: l}
}

type tradeRequest struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

// Buy purchases shares at the current quoted price.
// POST /users/{id}/buy
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.ledger.Buy(r.Context(), chi.URLParam(r, "id"), req.Symbol, req.Shares); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "executed"})
}

// Sell disposes of shares at the current quoted price.
// POST /users/{id}/sell
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, models.ErrInvalidInput)
		return
	}

	if err := h.ledger.Sell(r.Context(), chi.URLParam(r, "id"), req.Symbol, req.Shares); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "executed"})
}
