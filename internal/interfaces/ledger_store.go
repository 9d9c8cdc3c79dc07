package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// LedgerStore is the durable state behind the ledger: accounts plus the
// append-only transaction log. ApplyTrade is the single atomic unit of
// work for a trade; the cash change and the log append commit together
// or not at all.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account models.Account) error
	GetAccount(ctx context.Context, userID string) (models.Account, error)

	// ApplyTrade adds cashDelta to the account's cash and appends tx in one
	// atomic step. It fails with models.ErrInsufficientFunds if the delta
	// would drive cash negative, and with models.ErrDuplicateTimestamp if
	// the user already has a transaction at tx.ExecutedAt. On failure no
	// state changes.
	ApplyTrade(ctx context.Context, userID string, cashDelta decimal.Decimal, tx models.Transaction) error

	GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransactionsByUserSymbol(ctx context.Context, userID, symbol string) ([]models.Transaction, error)
}
