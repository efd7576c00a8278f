package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/Dan9191/web-banking/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNotFound    = errors.New("user not found")
)

// AccountStore holds one balance record per account number
type AccountStore interface {
	GetAccount(ctx context.Context, accountNumber string) (*models.Account, error)
	SetBalance(ctx context.Context, accountNumber string, balance decimal.Decimal) error
}

// LedgerStore is the append-only collection of ledger entries
type LedgerStore interface {
	AppendEntries(ctx context.Context, entries [2]models.Transaction) error
	// QueryByAccount returns entries newest first. Empty bounds are unbounded.
	QueryByAccount(ctx context.Context, accountNumber, from, to string) ([]models.Transaction, error)
	LatestN(ctx context.Context, accountNumber string, n int) ([]models.Transaction, error)
}

// Tx is the view of the stores inside a unit of work
type Tx interface {
	AccountStore
	LedgerStore
}

// UnitOfWork runs fn with every account in lockKeys held exclusively.
// Writes made through tx are kept only if fn returns nil and the commit
// succeeds.
type UnitOfWork interface {
	Do(ctx context.Context, lockKeys []string, fn func(tx Tx) error) error
}

// Store is everything the service layer needs from persistence
type Store interface {
	Tx
	UnitOfWork
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	Close() error
}

// lockOrder returns the distinct keys in ascending order. Every
// implementation acquires account locks in this order so that two
// transfers over the same pair cannot deadlock.
func lockOrder(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryRepository)(nil)
)
