package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileReport summarises one ledger reconciliation run
type ReconcileReport struct {
	StartedAt  time.Time         `json:"startedAt"`
	Checked    int               `json:"checked"`
	Skipped    int               `json:"skipped"` // accounts with no ledger entries
	Mismatches []BalanceMismatch `json:"mismatches"`
}

// BalanceMismatch is an account whose stored balance differs from
// the balanceAfter of its newest ledger entry
type BalanceMismatch struct {
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerBalance decimal.Decimal `json:"ledgerBalance"`
	EntryID       string          `json:"entryId"`
}
