package models

import "github.com/shopspring/decimal"

func init() {
	// Balances and amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Account represents a bank account
type Account struct {
	AccountNumber string          `json:"accountNumber"`
	UserID        string          `json:"userId"`
	Type          string          `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
}

// AccountRef is the public part of an account, without owner or balance
type AccountRef struct {
	AccountNumber string `json:"accountNumber"`
	Type          string `json:"type"`
}
