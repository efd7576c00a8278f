package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dan9191/web-banking/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryRepository keeps all state in process memory. Used for tests and
// for running the API without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	users    map[string]models.User
	ledger   []models.Transaction // append order

	locksMu sync.Mutex
	locks   map[string]*accountMutex
}

// accountMutex is removed from the lock table once refs drops to zero.
// refs counts holders and waiters.
type accountMutex struct {
	sync.Mutex
	refs int
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]models.Account),
		users:    make(map[string]models.User),
		locks:    make(map[string]*accountMutex),
	}
}

// AddAccount provisions an account
func (m *MemoryRepository) AddAccount(a models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.AccountNumber] = a
}

// AddUser provisions a user
func (m *MemoryRepository) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// Close is a no-op
func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) GetAccount(_ context.Context, accountNumber string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[accountNumber]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) SetBalance(_ context.Context, accountNumber string, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountNumber]
	if !ok {
		return ErrAccountNotFound
	}
	a.Balance = balance.Round(2)
	m.accounts[accountNumber] = a
	return nil
}

func (m *MemoryRepository) AppendEntries(_ context.Context, entries [2]models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, entries[0], entries[1])
	return nil
}

func (m *MemoryRepository) QueryByAccount(_ context.Context, accountNumber, from, to string) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.newestFirst(accountNumber, func(t models.Transaction) bool {
		return (from == "" || t.Date >= from) && (to == "" || t.Date <= to)
	}), nil
}

func (m *MemoryRepository) LatestN(_ context.Context, accountNumber string, n int) ([]models.Transaction, error) {
	if n <= 0 {
		return []models.Transaction{}, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.newestFirst(accountNumber, nil)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// newestFirst must be called with mu held. Dates compare lexicographically;
// entries sharing a date keep reverse insertion order.
func (m *MemoryRepository) newestFirst(accountNumber string, keep func(models.Transaction) bool) []models.Transaction {
	out := []models.Transaction{}
	for i := len(m.ledger) - 1; i >= 0; i-- {
		t := m.ledger[i]
		if t.AccountNumber != accountNumber || (keep != nil && !keep(t)) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (m *MemoryRepository) ListAccounts(_ context.Context) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (m *MemoryRepository) ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error) {
	all, _ := m.ListAccounts(ctx)
	out := []models.Account{}
	for _, a := range all {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryRepository) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) lockAccount(accountNumber string) {
	m.locksMu.Lock()
	l, ok := m.locks[accountNumber]
	if !ok {
		l = &accountMutex{}
		m.locks[accountNumber] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.Lock()
}

func (m *MemoryRepository) unlockAccount(accountNumber string) {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l := m.locks[accountNumber]
	l.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, accountNumber)
	}
}

// lockCount reports how many account locks are currently tracked
func (m *MemoryRepository) lockCount() int {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	return len(m.locks)
}

// Do holds the per-account mutex of every key, in ascending order, while fn
// runs. Balance writes and ledger appends made through tx are staged and
// applied together in one critical section after fn succeeds.
func (m *MemoryRepository) Do(ctx context.Context, lockKeys []string, fn func(tx Tx) error) error {
	keys := lockOrder(lockKeys)
	for _, k := range keys {
		m.lockAccount(k)
		defer m.unlockAccount(k)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		repo:     m,
		locked:   make(map[string]bool, len(keys)),
		balances: make(map[string]decimal.Decimal, len(keys)),
	}
	for _, k := range keys {
		tx.locked[k] = true
	}
	if err := fn(tx); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryRepository) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for acct := range tx.balances {
		if _, ok := m.accounts[acct]; !ok {
			return fmt.Errorf("commit: %s: %w", acct, ErrAccountNotFound)
		}
	}
	for acct, bal := range tx.balances {
		a := m.accounts[acct]
		a.Balance = bal
		m.accounts[acct] = a
	}
	m.ledger = append(m.ledger, tx.entries...)
	return nil
}

// memoryTx reads through to the repository and buffers writes
type memoryTx struct {
	repo     *MemoryRepository
	locked   map[string]bool
	balances map[string]decimal.Decimal
	entries  []models.Transaction
}

func (t *memoryTx) GetAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	a, err := t.repo.GetAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if bal, ok := t.balances[accountNumber]; ok {
		a.Balance = bal
	}
	return a, nil
}

func (t *memoryTx) SetBalance(ctx context.Context, accountNumber string, balance decimal.Decimal) error {
	if !t.locked[accountNumber] {
		return fmt.Errorf("account %s is not locked by this unit of work", accountNumber)
	}
	if _, err := t.repo.GetAccount(ctx, accountNumber); err != nil {
		return err
	}
	t.balances[accountNumber] = balance.Round(2)
	return nil
}

func (t *memoryTx) AppendEntries(_ context.Context, entries [2]models.Transaction) error {
	t.entries = append(t.entries, entries[0], entries[1])
	return nil
}

// QueryByAccount and LatestN see committed entries only.
func (t *memoryTx) QueryByAccount(ctx context.Context, accountNumber, from, to string) ([]models.Transaction, error) {
	return t.repo.QueryByAccount(ctx, accountNumber, from, to)
}

func (t *memoryTx) LatestN(ctx context.Context, accountNumber string, n int) ([]models.Transaction, error) {
	return t.repo.LatestN(ctx, accountNumber, n)
}
