package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/HAMZA310/Plowman-Finance/internal/config"
	"github.com/HAMZA310/Plowman-Finance/internal/events/kafka"
	"github.com/HAMZA310/Plowman-Finance/internal/handlers"
	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/ledger"
	"github.com/HAMZA310/Plowman-Finance/internal/quotes"
	"github.com/HAMZA310/Plowman-Finance/internal/storage/memory"
	"github.com/HAMZA310/Plowman-Finance/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store interfaces.LedgerStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.NewPostgresLedgerStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open postgres store: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		store = memory.NewMemoryLedgerStore()
	}

	var source interfaces.QuoteSource
	switch cfg.QuoteProvider {
	case "yahoo":
		source = quotes.NewYahooSource()
	default:
		source = quotes.NewFinnhubSource(quotes.DefaultFinnhubBaseURL, cfg.FinnhubAPIKey)
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	}

	ledgerService := ledger.NewLedger(store, source, publisher, cfg.StartingCash)

	userHandler := handlers.NewUserHandler(ledgerService)
	tradeHandler := handlers.NewTradeHandler(ledgerService)
	portfolioHandler := handlers.NewPortfolioHandler(ledgerService)
	quoteHandler := handlers.NewQuoteHandler(source)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/quote/{symbol}", quoteHandler.Get)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.Get)
			r.Post("/buy", tradeHandler.Buy)
			r.Post("/sell", tradeHandler.Sell)
			r.Get("/portfolio", portfolioHandler.Portfolio)
			r.Get("/history", portfolioHandler.History)
		})
	})

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
