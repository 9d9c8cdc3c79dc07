package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
	"github.com/HAMZA310/Plowman-Finance/internal/models/events"
)

// timestampRetries bounds how many times a trade is re-attempted with a
// fresh clock reading after a (user, executed_at) collision.
const timestampRetries = 3

// TradesTopic is the topic TradeExecuted events are published to.
const TradesTopic = "trades.executed"

// Ledger orchestrates buys and sells against the store, enforcing that
// cash never goes negative and that no user/symbol position ever goes
// net-negative. Holdings, valuation and history are derived from the
// transaction log rather than kept as running totals.
type Ledger struct {
	store        interfaces.LedgerStore
	quotes       interfaces.QuoteSource
	events       interfaces.EventPublisher // optional, nil disables events
	startingCash decimal.Decimal

	now func() time.Time

	muMap map[string]*sync.Mutex // one lock per user, serializes read-check-write
	mapMu sync.Mutex             // protects muMap
}

// NewLedger creates a Ledger over the given store and quote source.
// events may be nil to disable trade events.
func NewLedger(store interfaces.LedgerStore, quotes interfaces.QuoteSource, events interfaces.EventPublisher, startingCash decimal.Decimal) *Ledger {
	return &Ledger{
		store:        store,
		quotes:       quotes,
		events:       events,
		startingCash: startingCash,
		now:          time.Now,
		muMap:        make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[userID]; !exists {
		l.muMap[userID] = &sync.Mutex{}
	}
	return l.muMap[userID]
}

// Register creates an account funded with the starting cash amount.
func (l *Ledger) Register(ctx context.Context, username string) (models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Account{}, models.ErrInvalidInput
	}

	account := models.Account{
		ID:        uuid.New().String(),
		Username:  username,
		Cash:      l.startingCash,
		CreatedAt: l.now(),
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Account returns the current account state for userID.
func (l *Ledger) Account(ctx context.Context, userID string) (models.Account, error) {
	return l.store.GetAccount(ctx, userID)
}

// Buy purchases shares of symbol at the currently quoted price. The cash
// check and the paired write run under the user's lock, so a concurrent
// buy or sell for the same user cannot act on a stale cash snapshot.
func (l *Ledger) Buy(ctx context.Context, userID, symbol string, shares int64) error {
	symbol = normalizeSymbol(symbol)
	if userID == "" || symbol == "" || shares <= 0 {
		return models.ErrInvalidInput
	}

	quote, err := l.quotes.Lookup(ctx, symbol)
	if err != nil {
		return err
	}
	cost := quote.Price.Mul(decimal.NewFromInt(shares))

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	account, err := l.store.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if cost.GreaterThan(account.Cash) {
		return models.ErrInsufficientFunds
	}

	tx := models.Transaction{
		UserID: userID,
		Symbol: symbol,
		Name:   quote.Name,
		Shares: shares,
		Price:  quote.Price,
	}
	return l.commit(ctx, userID, cost.Neg(), tx)
}

// Sell disposes of shares of symbol at the currently quoted price. The
// net-shares check runs before the quote lookup, so a sell of more shares
// than held fails with ErrInsufficientShares even for a dead symbol.
func (l *Ledger) Sell(ctx context.Context, userID, symbol string, shares int64) error {
	symbol = normalizeSymbol(symbol)
	if userID == "" || symbol == "" || shares <= 0 {
		return models.ErrInvalidInput
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := l.store.GetAccount(ctx, userID); err != nil {
		return err
	}
	net, err := l.netShares(ctx, userID, symbol)
	if err != nil {
		return err
	}
	if shares > net {
		return models.ErrInsufficientShares
	}

	quote, err := l.quotes.Lookup(ctx, symbol)
	if err != nil {
		return err
	}
	proceeds := quote.Price.Mul(decimal.NewFromInt(shares))

	tx := models.Transaction{
		UserID: userID,
		Symbol: symbol,
		Name:   quote.Name,
		Shares: -shares,
		Price:  quote.Price,
	}
	return l.commit(ctx, userID, proceeds, tx)
}

// commit applies the paired write (cash delta + log append) as one unit.
// A timestamp collision is an internal race artifact, so it is retried
// with a fresh clock reading instead of being surfaced to the caller.
func (l *Ledger) commit(ctx context.Context, userID string, cashDelta decimal.Decimal, tx models.Transaction) error {
	var err error
	for attempt := 0; attempt < timestampRetries; attempt++ {
		tx.ID = uuid.New().String()
		tx.ExecutedAt = l.now()
		err = l.store.ApplyTrade(ctx, userID, cashDelta, tx)
		if !errors.Is(err, models.ErrDuplicateTimestamp) {
			break
		}
	}
	if errors.Is(err, models.ErrDuplicateTimestamp) {
		return fmt.Errorf("trade for user %s could not be recorded after %d attempts: %w", userID, timestampRetries, err)
	}
	if err != nil {
		return err
	}

	l.publishTrade(ctx, tx)
	return nil
}

// publishTrade emits a TradeExecuted event. The trade has already
// committed, so a publish failure is logged, not returned.
func (l *Ledger) publishTrade(ctx context.Context, tx models.Transaction) {
	if l.events == nil {
		return
	}
	evt := events.TradeExecuted{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Symbol:        tx.Symbol,
		Shares:        tx.Shares,
		Price:         tx.Price,
		OccurredAt:    tx.ExecutedAt,
	}
	if err := l.events.Publish(ctx, TradesTopic, evt); err != nil {
		log.Printf("publish trade event for %s: %v", tx.ID, err)
	}
}

func (l *Ledger) netShares(ctx context.Context, userID, symbol string) (int64, error) {
	txs, err := l.store.GetTransactionsByUserSymbol(ctx, userID, symbol)
	if err != nil {
		return 0, err
	}
	var net int64
	for _, t := range txs {
		net += t.Shares
	}
	return net, nil
}

// Holdings derives the user's current positions from the transaction log:
// net shares per symbol with the most recently seen price. Sold-out
// positions (net zero) are not current holdings and are suppressed.
func (l *Ledger) Holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	txs, err := l.store.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]*models.Holding)
	for _, t := range txs {
		h, ok := bySymbol[t.Symbol]
		if !ok {
			h = &models.Holding{Symbol: t.Symbol}
			bySymbol[t.Symbol] = h
		}
		h.Shares += t.Shares
		h.Name = t.Name
		h.LastPrice = t.Price
	}

	holdings := make([]models.Holding, 0, len(bySymbol))
	for _, h := range bySymbol {
		if h.Shares > 0 {
			holdings = append(holdings, *h)
		}
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings, nil
}

// Valuation is the account's cash plus the value of every held position
// at its last seen price.
func (l *Ledger) Valuation(ctx context.Context, userID string) (decimal.Decimal, error) {
	account, err := l.store.GetAccount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	holdings, err := l.Holdings(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	total := account.Cash
	for _, h := range holdings {
		total = total.Add(h.LastPrice.Mul(decimal.NewFromInt(h.Shares)))
	}
	return total, nil
}

// History returns every transaction for the user, oldest first.
func (l *Ledger) History(ctx context.Context, userID string) ([]models.Transaction, error) {
	return l.store.GetTransactionsByUser(ctx, userID)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
