package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	Port          string
	DatabaseURL   string // empty selects the in-memory store
	QuoteProvider string // "finnhub" or "yahoo"
	FinnhubAPIKey string
	KafkaBrokers  []string // empty disables trade events
	StartingCash  decimal.Decimal
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		QuoteProvider: getEnv("QUOTE_PROVIDER", "finnhub"),
		FinnhubAPIKey: os.Getenv("FINNHUB_API_KEY"),
		StartingCash:  decimal.NewFromInt(10000),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if raw := os.Getenv("STARTING_CASH"); raw != "" {
		cash, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid STARTING_CASH %q: %w", raw, err)
		}
		if cash.IsNegative() {
			return nil, fmt.Errorf("STARTING_CASH must not be negative, got %s", cash)
		}
		cfg.StartingCash = cash
	}

	switch cfg.QuoteProvider {
	case "finnhub":
		if cfg.FinnhubAPIKey == "" {
			return nil, errors.New("FINNHUB_API_KEY not set")
		}
	case "yahoo":
	default:
		return nil, fmt.Errorf("unknown QUOTE_PROVIDER %q", cfg.QuoteProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
