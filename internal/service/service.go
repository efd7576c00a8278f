package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/metrics"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/repository"
	"github.com/Dan9191/web-banking/internal/statement"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Notifier delivers a message about a ledger entry to the account owner
type Notifier interface {
	SendTransferNotification(to, username string, entry models.Transaction) error
}

// Service handles business logic
type Service struct {
	repo     repository.Store
	log      *logrus.Logger
	config   *config.Config
	metrics  *metrics.Metrics
	notifier Notifier

	now   func() time.Time
	newID func() string

	pending sync.WaitGroup
}

// Option customises a Service
type Option func(*Service)

// WithNotifier enables owner notifications after each transfer
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics replaces the default unregistered collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source used for ledger dates and tokens
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets the correlation id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService initializes a new service
func NewService(repo repository.Store, log *logrus.Logger, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		log:     log,
		config:  cfg,
		metrics: metrics.New(nil),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close waits for in-flight notifications
func (s *Service) Close() {
	s.pending.Wait()
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("User logged in")
	return user, tokenString, nil
}

// ListAccounts returns the accounts owned by a user
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.repo.ListAccountsByUser(ctx, userID)
}

// ListAccountRefs returns every account number with its type, for
// choosing a transfer recipient
func (s *Service) ListAccountRefs(ctx context.Context) ([]models.AccountRef, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]models.AccountRef, len(accounts))
	for i, a := range accounts {
		refs[i] = models.AccountRef{AccountNumber: a.AccountNumber, Type: a.Type}
	}
	return refs, nil
}

// Transactions returns the ledger of an account, newest first, optionally
// limited to an inclusive date range
func (s *Service) Transactions(ctx context.Context, accountNumber, from, to string) ([]models.Transaction, error) {
	if err := validateDates(from, to); err != nil {
		return nil, err
	}
	return s.repo.QueryByAccount(ctx, accountNumber, from, to)
}

// MiniStatement returns the most recent entries of an account
func (s *Service) MiniStatement(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	return s.repo.LatestN(ctx, accountNumber, s.config.MiniStatementSize)
}

// Statement renders the ledger of an account as an XML document
func (s *Service) Statement(ctx context.Context, accountNumber, from, to string) ([]byte, error) {
	entries, err := s.Transactions(ctx, accountNumber, from, to)
	if err != nil {
		return nil, err
	}
	return statement.RenderXML(statement.Header{
		AccountNumber: accountNumber,
		From:          from,
		To:            to,
		GeneratedAt:   s.now().UTC(),
	}, entries)
}

func validateDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}
