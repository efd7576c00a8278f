package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/web-banking/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations on PostgreSQL
type Repository struct {
	db *sql.DB
	queries
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, queries: queries{q: db}}
}

// Open connects to PostgreSQL, waits for it to accept connections and
// applies the schema.
func Open(ctx context.Context, dsn string, log *logrus.Logger) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	const attempts = 5
	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if i == attempts {
			db.Close()
			return nil, fmt.Errorf("could not reach database after %d attempts: %w", attempts, err)
		}
		log.WithField("attempt", i).Warn("Waiting for database")
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Database connection established")
	return NewRepository(db), nil
}

// Close releases the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

// Do runs fn inside a SQL transaction. Account rows are locked with
// SELECT ... FOR UPDATE one at a time in ascending account number order.
func (r *Repository) Do(ctx context.Context, lockKeys []string, fn func(tx Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, key := range lockOrder(lockKeys) {
		var locked string
		err := sqlTx.QueryRowContext(ctx,
			`SELECT account_number FROM bank.accounts WHERE account_number = $1 FOR UPDATE`,
			key,
		).Scan(&locked)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to lock account %s: %w", key, err)
		}
	}

	if err := fn(queries{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListAccounts returns every account ordered by account number
func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_number, user_id, type, balance
		FROM bank.accounts
		ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return scanAccounts(rows)
}

// ListAccountsByUser returns the accounts owned by a user
func (r *Repository) ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_number, user_id, type, balance
		FROM bank.accounts
		WHERE user_id = $1
		ORDER BY account_number`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %s: %w", userID, err)
	}
	return scanAccounts(rows)
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, `WHERE username = $1`, username)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, full_name, email, password_hash
		FROM bank.users ` + where
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// queries implements Tx on top of either the pool or an open transaction
type queries struct {
	q querier
}

// GetAccount retrieves an account by its number
func (s queries) GetAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	account := &models.Account{}
	err := s.q.QueryRowContext(ctx, `
		SELECT account_number, user_id, type, balance
		FROM bank.accounts
		WHERE account_number = $1`, accountNumber).
		Scan(&account.AccountNumber, &account.UserID, &account.Type, &account.Balance)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountNumber, err)
	}
	return account, nil
}

// SetBalance overwrites the balance of an account
func (s queries) SetBalance(ctx context.Context, accountNumber string, balance decimal.Decimal) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bank.accounts SET balance = $1 WHERE account_number = $2`,
		balance.StringFixed(2), accountNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", accountNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update balance of %s: %w", accountNumber, err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AppendEntries inserts both entries with a single statement
func (s queries) AppendEntries(ctx context.Context, entries [2]models.Transaction) error {
	args := make([]any, 0, 16)
	for _, e := range entries {
		args = append(args,
			e.ID, e.CorrelationID, e.AccountNumber, e.Date,
			e.Description, e.Amount.StringFixed(2), string(e.Type), e.BalanceAfter.StringFixed(2),
		)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bank.transactions
			(id, correlation_id, account_number, txn_date, description, amount, type, balance_after)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8),
			($9, $10, $11, $12, $13, $14, $15, $16)`, args...)
	if err != nil {
		return fmt.Errorf("failed to append ledger entries: %w", err)
	}
	return nil
}

// QueryByAccount lists entries for an account within an inclusive date range
func (s queries) QueryByAccount(ctx context.Context, accountNumber, from, to string) ([]models.Transaction, error) {
	query := `
		SELECT id, correlation_id, account_number, to_char(txn_date, 'YYYY-MM-DD'),
		       description, amount, type, balance_after
		FROM bank.transactions
		WHERE account_number = $1`
	args := []any{accountNumber}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND txn_date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND txn_date <= $%d", len(args))
	}
	query += " ORDER BY txn_date DESC, seq DESC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", accountNumber, err)
	}
	return scanTransactions(rows)
}

// LatestN returns at most n of the newest entries for an account
func (s queries) LatestN(ctx context.Context, accountNumber string, n int) ([]models.Transaction, error) {
	if n <= 0 {
		return []models.Transaction{}, nil
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, correlation_id, account_number, to_char(txn_date, 'YYYY-MM-DD'),
		       description, amount, type, balance_after
		FROM bank.transactions
		WHERE account_number = $1
		ORDER BY txn_date DESC, seq DESC
		LIMIT $2`, accountNumber, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest transactions for %s: %w", accountNumber, err)
	}
	return scanTransactions(rows)
}

func scanAccounts(rows *sql.Rows) ([]models.Account, error) {
	defer rows.Close()
	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.AccountNumber, &a.UserID, &a.Type, &a.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return accounts, nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	txns := []models.Transaction{}
	for rows.Next() {
		var (
			t   models.Transaction
			typ string
		)
		if err := rows.Scan(&t.ID, &t.CorrelationID, &t.AccountNumber, &t.Date,
			&t.Description, &t.Amount, &typ, &t.BalanceAfter); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Type = models.TransactionType(typ)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txns, nil
}
