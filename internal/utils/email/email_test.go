package email

import (
	"errors"
	"io"
	"net/smtp"
	"testing"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(send func(e *email.Email, addr string, auth smtp.Auth) error) *Sender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(&config.Config{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    "2525",
		SenderEmail: "bank@example.com",
	}, logger)
	s.send = send
	return s
}

var creditEntry = models.Transaction{
	ID:            "c1_credit",
	AccountNumber: "1002",
	Date:          "2026-02-13",
	Description:   "Transfer from 1001 - rent",
	Amount:        decimal.RequireFromString("50"),
	Type:          models.Credit,
	BalanceAfter:  decimal.RequireFromString("250.5"),
}

func TestSendTransferNotification_Credit(t *testing.T) {
	var (
		sent    *email.Email
		gotAddr string
	)
	s := newTestSender(func(e *email.Email, addr string, _ smtp.Auth) error {
		sent, gotAddr = e, addr
		return nil
	})

	require.NoError(t, s.SendTransferNotification("jane@example.com", "Jane", creditEntry))
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, "bank@example.com", sent.From)
	assert.Equal(t, []string{"jane@example.com"}, sent.To)
	assert.Equal(t, "Incoming Transfer Notification", sent.Subject)

	body := string(sent.Text)
	assert.Contains(t, body, "Dear Jane")
	assert.Contains(t, body, "credited with $50.00")
	assert.Contains(t, body, "Current balance: $250.50")
	assert.Contains(t, body, "Reference: c1_credit")
}

func TestSendTransferNotification_Debit(t *testing.T) {
	var sent *email.Email
	s := newTestSender(func(e *email.Email, _ string, _ smtp.Auth) error {
		sent = e
		return nil
	})

	debit := creditEntry
	debit.Type = models.Debit
	debit.AccountNumber = "1001"
	require.NoError(t, s.SendTransferNotification("john@example.com", "John", debit))
	assert.Equal(t, "Outgoing Transfer Notification", sent.Subject)
	assert.Contains(t, string(sent.Text), "transferred from your account 1001")
}

func TestSendTransferNotification_Error(t *testing.T) {
	s := newTestSender(func(*email.Email, string, smtp.Auth) error {
		return errors.New("connection refused")
	})

	err := s.SendTransferNotification("jane@example.com", "Jane", creditEntry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit notification")
}
