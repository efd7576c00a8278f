// Package jobs holds background work scheduled with cron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/web-banking/internal/metrics"
	"github.com/Dan9191/web-banking/internal/models"
	"github.com/Dan9191/web-banking/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// LedgerReader is the part of the store the reconciler needs
type LedgerReader interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	LatestN(ctx context.Context, accountNumber string, n int) ([]models.Transaction, error)
}

var _ LedgerReader = (repository.Store)(nil)

// Reconciler checks that every account balance equals the balanceAfter of
// its newest ledger entry
type Reconciler struct {
	store   LedgerReader
	log     *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReconciler creates a reconciler
func NewReconciler(store LedgerReader, log *logrus.Logger, m *metrics.Metrics) *Reconciler {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Reconciler{store: store, log: log, metrics: m, now: time.Now}
}

// Run performs one reconciliation pass. Accounts without ledger entries are
// skipped since their balance was provisioned, not transferred.
func (r *Reconciler) Run(ctx context.Context) (models.ReconcileReport, error) {
	report := models.ReconcileReport{StartedAt: r.now().UTC(), Mismatches: []models.BalanceMismatch{}}

	accounts, err := r.store.ListAccounts(ctx)
	if err != nil {
		r.metrics.ObserveReconcile(err, 0)
		return report, fmt.Errorf("reconcile: %w", err)
	}

	for _, a := range accounts {
		latest, err := r.store.LatestN(ctx, a.AccountNumber, 1)
		if err != nil {
			r.metrics.ObserveReconcile(err, 0)
			return report, fmt.Errorf("reconcile %s: %w", a.AccountNumber, err)
		}
		if len(latest) == 0 {
			report.Skipped++
			continue
		}
		report.Checked++
		last := latest[0]
		if !last.BalanceAfter.Equal(a.Balance) {
			report.Mismatches = append(report.Mismatches, models.BalanceMismatch{
				AccountNumber: a.AccountNumber,
				Balance:       a.Balance,
				LedgerBalance: last.BalanceAfter,
				EntryID:       last.ID,
			})
			r.log.WithFields(logrus.Fields{
				"account":        a.AccountNumber,
				"balance":        a.Balance.StringFixed(2),
				"ledger_balance": last.BalanceAfter.StringFixed(2),
				"entry_id":       last.ID,
			}).Warn("Balance does not match ledger")
		}
	}

	r.metrics.ObserveReconcile(nil, len(report.Mismatches))
	r.log.WithFields(logrus.Fields{
		"checked":    report.Checked,
		"skipped":    report.Skipped,
		"mismatches": len(report.Mismatches),
	}).Info("Ledger reconciliation finished")
	return report, nil
}

// Schedule registers the reconciler on c using a cron spec such as
// "@every 1h" or "0 3 * * *"
func (r *Reconciler) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		if _, err := r.Run(context.Background()); err != nil {
			r.log.WithError(err).Error("Ledger reconciliation failed")
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	return id, nil
}
