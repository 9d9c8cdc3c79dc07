package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// All state lives behind one mutex, which also gives ApplyTrade its
// all-or-nothing semantics: every check runs before any field is touched.
type MemoryLedgerStore struct {
	mu        sync.Mutex
	accounts  map[string]models.Account
	usernames map[string]string             // username -> account id
	stamps    map[string]map[int64]struct{} // user id -> executed_at (unix nanos) already used
	entries   []models.Transaction
	seq       int64
}

// NewMemoryLedgerStore creates an empty MemoryLedgerStore.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:  make(map[string]models.Account),
		usernames: make(map[string]string),
		stamps:    make(map[string]map[int64]struct{}),
	}
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.usernames[account.Username]; taken {
		return models.ErrUsernameTaken
	}
	m.usernames[account.Username] = account.ID
	m.accounts[account.ID] = account
	return nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[userID]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return account, nil
}

// ApplyTrade adds cashDelta to the account's cash and appends tx as one
// atomic step. On any failure no state changes.
func (m *MemoryLedgerStore) ApplyTrade(ctx context.Context, userID string, cashDelta decimal.Decimal, tx models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[userID]
	if !ok {
		return models.ErrAccountNotFound
	}
	if _, taken := m.stamps[userID][tx.ExecutedAt.UnixNano()]; taken {
		return models.ErrDuplicateTimestamp
	}
	newCash := account.Cash.Add(cashDelta)
	if newCash.IsNegative() {
		return models.ErrInsufficientFunds
	}

	m.seq++
	tx.Seq = m.seq
	account.Cash = newCash
	m.accounts[userID] = account
	if m.stamps[userID] == nil {
		m.stamps[userID] = make(map[int64]struct{})
	}
	m.stamps[userID][tx.ExecutedAt.UnixNano()] = struct{}{}
	m.entries = append(m.entries, tx)
	return nil
}

// GetTransactionsByUser returns the user's transactions oldest first.
// The result is a copy so callers cannot modify internal state.
func (m *MemoryLedgerStore) GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.entries {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) GetTransactionsByUserSymbol(ctx context.Context, userID, symbol string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.Transaction
	for _, t := range m.entries {
		if t.UserID == userID && t.Symbol == symbol {
			result = append(result, t)
		}
	}
	return result, nil
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
