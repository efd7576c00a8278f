package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/repository"
	"github.com/Dan9191/web-banking/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransferRequest is a fund movement as submitted by the caller.
// Amount is kept as text so that parsing is part of validation.
type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      string
	Description string
}

// TransferResult describes a committed transfer
type TransferResult struct {
	CorrelationID string
	Amount        decimal.Decimal
	NewBalance    decimal.Decimal // source balance after the transfer
	Message       string
	Debit         models.Transaction
	Credit        models.Transaction
}

// Transfer moves money between two accounts and records a debit and a
// credit entry. Either both balances and both entries are committed, or
// nothing is.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	start := time.Now()
	res, err := s.transfer(ctx, req)

	result := "success"
	if err != nil {
		result = string(KindOf(err))
	}
	s.metrics.ObserveTransfer(result, time.Since(start))

	if err == nil {
		s.notifyParties(res)
	}
	return res, err
}

func (s *Service) transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	from := strings.TrimSpace(req.FromAccount)
	to := strings.TrimSpace(req.ToAccount)
	rawAmount := strings.TrimSpace(req.Amount)
	note := strings.TrimSpace(req.Description)

	if from == "" || to == "" || rawAmount == "" || note == "" {
		return nil, newTransferError(InvalidRequest, "All fields are required")
	}
	if from == to {
		return nil, newTransferError(SameAccount, "Cannot transfer to the same account")
	}
	amount, err := utils.ParseAmount(rawAmount)
	if err != nil || !amount.IsPositive() {
		return nil, newTransferError(InvalidAmount, "Amount must be a positive number")
	}

	correlationID := s.newID()
	date := s.now().UTC().Format(models.DateLayout)
	fields := logrus.Fields{
		"correlation_id": correlationID,
		"from":           from,
		"to":             to,
		"amount":         utils.FormatAmount(amount),
	}

	var result *TransferResult
	err = s.repo.Do(ctx, []string{from, to}, func(tx repository.Tx) error {
		source, err := tx.GetAccount(ctx, from)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return newTransferError(SourceNotFound, "Your account was not found")
		}
		if err != nil {
			return err
		}
		dest, err := tx.GetAccount(ctx, to)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return newTransferError(DestinationNotFound, "Recipient account not found. Please check the account number.")
		}
		if err != nil {
			return err
		}

		if source.Balance.LessThan(amount) {
			return newTransferError(InsufficientFunds,
				fmt.Sprintf("Insufficient balance. Your current balance is $%s", utils.FormatAmount(source.Balance)))
		}

		newSource := utils.Round2(source.Balance.Sub(amount))
		newDest := utils.Round2(dest.Balance.Add(amount))

		if err := tx.SetBalance(ctx, from, newSource); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, to, newDest); err != nil {
			return err
		}

		debit := models.Transaction{
			ID:            correlationID + "_" + string(models.Debit),
			CorrelationID: correlationID,
			AccountNumber: from,
			Date:          date,
			Description:   fmt.Sprintf("Transfer to %s - %s", to, note),
			Amount:        amount,
			Type:          models.Debit,
			BalanceAfter:  newSource,
		}
		credit := models.Transaction{
			ID:            correlationID + "_" + string(models.Credit),
			CorrelationID: correlationID,
			AccountNumber: to,
			Date:          date,
			Description:   fmt.Sprintf("Transfer from %s - %s", from, note),
			Amount:        amount,
			Type:          models.Credit,
			BalanceAfter:  newDest,
		}
		if err := tx.AppendEntries(ctx, [2]models.Transaction{debit, credit}); err != nil {
			return err
		}

		result = &TransferResult{
			CorrelationID: correlationID,
			Amount:        amount,
			NewBalance:    newSource,
			Message:       fmt.Sprintf("Successfully transferred $%s to account %s", utils.FormatAmount(amount), to),
			Debit:         debit,
			Credit:        credit,
		}
		return nil
	})

	if err != nil {
		var te *TransferError
		if errors.As(err, &te) {
			s.log.WithFields(fields).WithField("kind", te.Kind).Info("Transfer rejected")
			return nil, te
		}
		s.log.WithFields(fields).WithError(err).Error("Transfer failed, no changes were committed")
		return nil, &TransferError{Kind: TransferFailed, Message: transferFailedMessage, Err: err}
	}

	s.log.WithFields(fields).WithField("new_balance", utils.FormatAmount(result.NewBalance)).Info("Transfer completed")
	return result, nil
}
