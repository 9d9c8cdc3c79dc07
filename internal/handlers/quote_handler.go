package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
)

// QuoteHandler surfaces the quote source directly.
type QuoteHandler struct {
	quotes interfaces.QuoteSource
}

func NewQuoteHandler(quotes interfaces.QuoteSource) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// Get returns the current quote for a symbol.
// GET /quote/{symbol}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.quotes.Lookup(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
