package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HAMZA310/Plowman-Finance/internal/models"
	"github.com/HAMZA310/Plowman-Finance/internal/storage/memory"
)

type stubQuotes struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func (s *stubQuotes) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[symbol]
	if !ok {
		return models.Quote{}, models.ErrSymbolNotFound
	}
	return models.Quote{Symbol: symbol, Name: symbol + " Inc.", Price: price}, nil
}

func (s *stubQuotes) setPrice(symbol, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = decimal.RequireFromString(price)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestLedger(startingCash string) (*Ledger, *stubQuotes, *memory.MemoryLedgerStore, *recordingPublisher) {
	store := memory.NewMemoryLedgerStore()
	quotes := &stubQuotes{prices: make(map[string]decimal.Decimal)}
	publisher := &recordingPublisher{}
	l := NewLedger(store, quotes, publisher, decimal.RequireFromString(startingCash))
	return l, quotes, store, publisher
}

func register(t *testing.T, l *Ledger, username string) models.Account {
	t.Helper()
	account, err := l.Register(context.Background(), username)
	require.NoError(t, err)
	return account
}

func cash(t *testing.T, l *Ledger, userID string) decimal.Decimal {
	t.Helper()
	account, err := l.Account(context.Background(), userID)
	require.NoError(t, err)
	return account.Cash
}

func TestRegisterFundsAccountWithStartingCash(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")

	account := register(t, l, "alice")
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.True(t, account.Cash.Equal(decimal.NewFromInt(10000)))
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")

	register(t, l, "alice")
	_, err := l.Register(context.Background(), "alice")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)
}

func TestRegisterRejectsEmptyUsername(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")

	_, err := l.Register(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestBuyDebitsCashAndAppendsTransaction(t *testing.T) {
	l, quotes, _, publisher := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")

	require.NoError(t, l.Buy(context.Background(), account.ID, "NFLX", 5))

	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(9500)))

	history, err := l.History(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "NFLX", history[0].Symbol)
	assert.Equal(t, "NFLX Inc.", history[0].Name)
	assert.Equal(t, int64(5), history[0].Shares)
	assert.True(t, history[0].Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, publisher.count())
}

func TestBuyNormalizesSymbol(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")

	require.NoError(t, l.Buy(context.Background(), account.ID, " nflx ", 1))

	history, err := l.History(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "NFLX", history[0].Symbol)
}

func TestBuyInsufficientFundsLeavesStateUntouched(t *testing.T) {
	l, quotes, _, publisher := newTestLedger("10000")
	quotes.setPrice("NFLX", "2001")
	account := register(t, l, "alice")

	err := l.Buy(context.Background(), account.ID, "NFLX", 5)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(10000)))
	history, err := l.History(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 0, publisher.count())
}

func TestBuyRejectsInvalidInput(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("X", "10")
	account := register(t, l, "alice")

	assert.ErrorIs(t, l.Buy(context.Background(), account.ID, "X", 0), models.ErrInvalidInput)
	assert.ErrorIs(t, l.Buy(context.Background(), account.ID, "X", -3), models.ErrInvalidInput)
	assert.ErrorIs(t, l.Buy(context.Background(), account.ID, "", 1), models.ErrInvalidInput)

	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(10000)))
	history, err := l.History(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBuyUnknownSymbol(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")
	account := register(t, l, "alice")

	err := l.Buy(context.Background(), account.ID, "NOPE", 1)
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
}

func TestBuyUnknownUser(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")

	err := l.Buy(context.Background(), "ghost", "NFLX", 1)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

// The full scenario: 10000 starting cash, buy 5 NFLX at 100, a sell of 6
// is refused, a sell of 5 at 120 closes the position at 10100.
func TestSellScenario(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 5))
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(9500)))

	err := l.Sell(ctx, account.ID, "NFLX", 6)
	assert.ErrorIs(t, err, models.ErrInsufficientShares)
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(9500)))
	history, err := l.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	quotes.setPrice("NFLX", "120")
	require.NoError(t, l.Sell(ctx, account.ID, "NFLX", 5))
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(10100)))

	history, err = l.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-5), history[1].Shares)
	assert.True(t, history[1].Price.Equal(decimal.NewFromInt(120)))

	holdings, err := l.Holdings(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings, "a sold-out position is not a current holding")
}

func TestSellChecksSharesBeforeQuote(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")
	account := register(t, l, "alice")

	// Symbol unknown to the quote source, but the user holds nothing of it
	// either; the shares check comes first.
	err := l.Sell(context.Background(), account.ID, "NOPE", 1)
	assert.ErrorIs(t, err, models.ErrInsufficientShares)
}

func TestSellRejectsInvalidInput(t *testing.T) {
	l, _, _, _ := newTestLedger("10000")
	account := register(t, l, "alice")

	assert.ErrorIs(t, l.Sell(context.Background(), account.ID, "X", 0), models.ErrInvalidInput)
	assert.ErrorIs(t, l.Sell(context.Background(), account.ID, "", 1), models.ErrInvalidInput)
}

func TestBuySellRoundTripAtSamePrice(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("ABC", "42.5")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "ABC", 10))
	require.NoError(t, l.Sell(ctx, account.ID, "ABC", 10))

	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(10000)))
	holdings, err := l.Holdings(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestHoldingsAggregatesPerSymbol(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	quotes.setPrice("AAPL", "50")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 5))
	require.NoError(t, l.Buy(ctx, account.ID, "AAPL", 3))
	quotes.setPrice("NFLX", "110")
	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 2))
	require.NoError(t, l.Sell(ctx, account.ID, "AAPL", 3))

	holdings, err := l.Holdings(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "NFLX", holdings[0].Symbol)
	assert.Equal(t, int64(7), holdings[0].Shares)
	assert.True(t, holdings[0].LastPrice.Equal(decimal.NewFromInt(110)),
		"last price must come from the most recent transaction")
}

func TestValuation(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 5))
	quotes.setPrice("NFLX", "120")
	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 1))

	// cash 10000 - 500 - 120 = 9380; position 6 shares at last price 120 = 720.
	total, err := l.Valuation(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(10100)), "got %s", total)
}

func TestHistoryIsOrderedAndIdempotent(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "10")
	quotes.setPrice("AAPL", "20")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 1))
	require.NoError(t, l.Buy(ctx, account.ID, "AAPL", 2))
	require.NoError(t, l.Sell(ctx, account.ID, "NFLX", 1))

	first, err := l.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i].Seq, first[i-1].Seq)
	}

	second, err := l.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Two concurrent buys against cash that covers only one of them must end
// with exactly one success, never a negative balance.
func TestConcurrentBuysExactlyOneSucceeds(t *testing.T) {
	l, quotes, _, _ := newTestLedger("100")
	quotes.setPrice("NFLX", "60")
	account := register(t, l, "alice")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Buy(context.Background(), account.ID, "NFLX", 1)
		}()
	}
	wg.Wait()
	close(errs)

	var successes, rejections int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrInsufficientFunds):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(40)))
}

func TestTimestampCollisionIsRetried(t *testing.T) {
	l, quotes, _, _ := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 1))
	history, err := l.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	stamp := history[0].ExecutedAt

	// First clock reading collides with the recorded trade, the retry gets
	// a fresh one.
	readings := []time.Time{stamp, stamp.Add(time.Nanosecond)}
	l.now = func() time.Time {
		next := readings[0]
		if len(readings) > 1 {
			readings = readings[1:]
		}
		return next
	}

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 1))
	history, err = l.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTimestampCollisionExhaustsRetries(t *testing.T) {
	l, quotes, _, publisher := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	account := register(t, l, "alice")
	ctx := context.Background()

	require.NoError(t, l.Buy(ctx, account.ID, "NFLX", 1))
	history, err := l.History(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	stamp := history[0].ExecutedAt
	l.now = func() time.Time { return stamp }

	err = l.Buy(ctx, account.ID, "NFLX", 1)
	assert.ErrorIs(t, err, models.ErrDuplicateTimestamp)

	// The failed trade left no trace.
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(9900)))
	history, err = l.History(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, publisher.count())
}

func TestPublishFailureDoesNotFailTrade(t *testing.T) {
	l, quotes, _, publisher := newTestLedger("10000")
	quotes.setPrice("NFLX", "100")
	publisher.err = errors.New("broker unreachable")
	account := register(t, l, "alice")

	require.NoError(t, l.Buy(context.Background(), account.ID, "NFLX", 1))
	assert.True(t, cash(t, l, account.ID).Equal(decimal.NewFromInt(9900)))
}
