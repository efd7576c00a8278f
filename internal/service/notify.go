package service

import (
	"context"
	"time"

	"github.com/Dan9191/web-banking/internal/models"
)

const notifyTimeout = 30 * time.Second

// notifyParties tells the owners of both accounts about a committed
// transfer. Delivery runs in the background and never affects the result.
func (s *Service) notifyParties(res *TransferResult) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		for _, entry := range []models.Transaction{res.Debit, res.Credit} {
			s.notifyOwner(ctx, entry)
		}
	}()
}

func (s *Service) notifyOwner(ctx context.Context, entry models.Transaction) {
	log := s.log.WithField("entry_id", entry.ID)

	account, err := s.repo.GetAccount(ctx, entry.AccountNumber)
	if err != nil {
		log.WithError(err).Warn("Skipping notification, account lookup failed")
		return
	}
	user, err := s.repo.FindUserByID(ctx, account.UserID)
	if err != nil {
		log.WithError(err).Warn("Skipping notification, owner lookup failed")
		return
	}
	if user.Email == "" {
		return
	}
	if err := s.notifier.SendTransferNotification(user.Email, user.FullName, entry); err != nil {
		log.WithError(err).Warn("Failed to send transfer notification")
	}
}
