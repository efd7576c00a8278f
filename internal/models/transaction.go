package models

import "github.com/shopspring/decimal"

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	Debit  TransactionType = "debit"
	Credit TransactionType = "credit"
)

// DateLayout is the calendar date format used for ledger dates and filters
const DateLayout = "2006-01-02"

// Transaction represents one immutable ledger entry on a single account
type Transaction struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlationId"`
	AccountNumber string          `json:"accountNumber"`
	Date          string          `json:"date"` // Format: YYYY-MM-DD
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
}
