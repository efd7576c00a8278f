package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/utils"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send:   (*email.Email).Send,
	}
}

// SendTransferNotification sends a notification email for one side of a transfer
func (s *Sender) SendTransferNotification(to, username string, entry models.Transaction) error {
	e := s.transferEmail(to, username, entry)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send %s notification to %s: %v", entry.Type, to, err)
		return fmt.Errorf("failed to send %s notification: %w", entry.Type, err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) transferEmail(to, username string, entry models.Transaction) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}

	// Format email body
	body := fmt.Sprintf("Dear %s,\n\n", username)
	if entry.Type == models.Credit {
		e.Subject = "Incoming Transfer Notification"
		body += fmt.Sprintf(
			"Your account %s has been credited with $%s.\n",
			entry.AccountNumber, utils.FormatAmount(entry.Amount),
		)
	} else {
		e.Subject = "Outgoing Transfer Notification"
		body += fmt.Sprintf(
			"An amount of $%s has been transferred from your account %s.\n",
			utils.FormatAmount(entry.Amount), entry.AccountNumber,
		)
	}
	body += fmt.Sprintf(
		"Details: %s\n"+
			"Date: %s\n"+
			"Reference: %s\n"+
			"Current balance: $%s\n",
		entry.Description, entry.Date, entry.ID, utils.FormatAmount(entry.BalanceAfter),
	)
	body += "\nBest regards,\nWeb Banking"
	e.Text = []byte(body)
	return e
}
