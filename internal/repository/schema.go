package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS bank`,
	`CREATE TABLE IF NOT EXISTS bank.users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		full_name     TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bank.accounts (
		account_number TEXT PRIMARY KEY,
		user_id        TEXT NOT NULL,
		type           TEXT NOT NULL,
		balance        NUMERIC(20,2) NOT NULL DEFAULT 0 CHECK (balance >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bank.transactions (
		seq            BIGSERIAL PRIMARY KEY,
		id             TEXT NOT NULL UNIQUE,
		correlation_id TEXT NOT NULL,
		account_number TEXT NOT NULL REFERENCES bank.accounts(account_number),
		txn_date       DATE NOT NULL,
		description    TEXT NOT NULL,
		amount         NUMERIC(20,2) NOT NULL CHECK (amount > 0),
		type           TEXT NOT NULL CHECK (type IN ('debit', 'credit')),
		balance_after  NUMERIC(20,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON bank.transactions(account_number, txn_date DESC, seq DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user_id
		ON bank.accounts(user_id)`,
}

// Migrate creates the schema idempotently
func Migrate(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	log.Info("Database schema is up to date")
	return nil
}
