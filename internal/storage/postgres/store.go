package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/shopspring/decimal"

	"github.com/HAMZA310/Plowman-Finance/internal/interfaces"
	"github.com/HAMZA310/Plowman-Finance/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const uniqueViolation = "23505"

// PostgresLedgerStore is the Postgres implementation of
// interfaces.LedgerStore. The trade write path runs inside a single
// database transaction with a conditional cash update, so solvency holds
// even when several processes share the database.
type PostgresLedgerStore struct {
	db *sqlx.DB
}

// NewPostgresLedgerStore connects to Postgres and applies pending migrations.
func NewPostgresLedgerStore(dataSourceName string) (*PostgresLedgerStore, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresLedgerStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("applied %d database migrations", n)
	}
	return nil
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	const query = `INSERT INTO accounts (id, username, cash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := p.db.ExecContext(ctx, query, account.ID, account.Username, account.Cash, account.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrUsernameTaken
	}
	return err
}

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, userID string) (models.Account, error) {
	const query = `SELECT id, username, cash, created_at FROM accounts WHERE id = $1`

	var account models.Account
	err := p.db.GetContext(ctx, &account, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// ApplyTrade applies the cash change and the log append in one database
// transaction. The cash update is conditional on the resulting balance
// staying non-negative, which backs up the engine's own check when more
// than one process writes to the same account.
func (p *PostgresLedgerStore) ApplyTrade(ctx context.Context, userID string, cashDelta decimal.Decimal, tx models.Transaction) error {
	dbTx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const updateCash = `UPDATE accounts SET cash = cash + $1
		WHERE id = $2 AND cash + $1 >= 0`
	res, err := dbTx.ExecContext(ctx, updateCash, cashDelta, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err = dbTx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, userID); err != nil {
			return err
		}
		err = models.ErrInsufficientFunds
		if !exists {
			err = models.ErrAccountNotFound
		}
		return err
	}

	const insertTx = `INSERT INTO transactions (id, user_id, symbol, name, shares, price, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = dbTx.ExecContext(ctx, insertTx,
		tx.ID, tx.UserID, tx.Symbol, tx.Name, tx.Shares, tx.Price, tx.ExecutedAt); err != nil {
		if isUniqueViolation(err) {
			err = models.ErrDuplicateTimestamp
		}
		return err
	}

	err = dbTx.Commit()
	return err
}

func (p *PostgresLedgerStore) GetTransactionsByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	const query = `SELECT seq, id, user_id, symbol, name, shares, price, executed_at
		FROM transactions WHERE user_id = $1 ORDER BY seq`

	var txs []models.Transaction
	if err := p.db.SelectContext(ctx, &txs, query, userID); err != nil {
		return nil, err
	}
	return txs, nil
}

func (p *PostgresLedgerStore) GetTransactionsByUserSymbol(ctx context.Context, userID, symbol string) ([]models.Transaction, error) {
	const query = `SELECT seq, id, user_id, symbol, name, shares, price, executed_at
		FROM transactions WHERE user_id = $1 AND symbol = $2 ORDER BY seq`

	var txs []models.Transaction
	if err := p.db.SelectContext(ctx, &txs, query, userID, symbol); err != nil {
		return nil, err
	}
	return txs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Compile-time check: ensure PostgresLedgerStore implements LedgerStore.
var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
