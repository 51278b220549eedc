// Package scheduler runs periodic maintenance jobs for the livestock domain.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/farmstock/backend/internal/application/depletion"
	"github.com/farmstock/backend/internal/domain/livestock"
	"github.com/farmstock/backend/internal/domain/shared"
)

// Config holds scheduler configuration
type Config struct {
	Enabled      bool
	CronSchedule string
	JobTimeout   time.Duration
}

// DefaultConfig returns the default scheduler configuration: a nightly
// reconciliation at 2 AM.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		CronSchedule: "0 2 * * *",
		JobTimeout:   10 * time.Minute,
	}
}

// SnapshotScheduler periodically reconciles the persisted current-quantity
// snapshot of every active livestock group against its live batch sums.
// Commits keep snapshots fresh on their own; the nightly pass catches drift
// introduced by writes that bypass the depletion flow.
type SnapshotScheduler struct {
	cron      *cron.Cron
	txScope   depletion.TransactionScope
	publisher shared.EventPublisher
	config    Config
	logger    *zap.Logger
}

// NewSnapshotScheduler creates a new snapshot scheduler
func NewSnapshotScheduler(txScope depletion.TransactionScope, publisher shared.EventPublisher, cfg Config, logger *zap.Logger) *SnapshotScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SnapshotScheduler{
		cron:      cron.New(),
		txScope:   txScope,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// Start registers the reconciliation job and starts the cron loop
func (s *SnapshotScheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("snapshot scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.CronSchedule, s.runReconciliation)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("snapshot scheduler started",
		zap.String("schedule", s.config.CronSchedule),
	)
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *SnapshotScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("snapshot scheduler stopped")
}

func (s *SnapshotScheduler) runReconciliation() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.JobTimeout)
	defer cancel()

	reconciled, drifted, err := s.ReconcileSnapshots(ctx)
	if err != nil {
		s.logger.Error("snapshot reconciliation failed", zap.Error(err))
		return
	}

	s.logger.Info("snapshot reconciliation completed",
		zap.Int("reconciled", reconciled),
		zap.Int("drifted", drifted),
	)
}

// ReconcileSnapshots recomputes the snapshot of every active livestock
// group from its batch sums. Returns the number of groups processed and
// the number whose stored snapshot had drifted.
func (s *SnapshotScheduler) ReconcileSnapshots(ctx context.Context) (reconciled, drifted int, err error) {
	err = s.txScope.Execute(ctx, func(repos depletion.TransactionalRepositories) error {
		groups, err := repos.LivestockRepo().FindActive(ctx)
		if err != nil {
			return err
		}

		for i := range groups {
			changed, err := s.reconcileOne(ctx, repos, groups[i].ID)
			if err != nil {
				return err
			}
			reconciled++
			if changed {
				drifted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return reconciled, drifted, nil
}

func (s *SnapshotScheduler) reconcileOne(ctx context.Context, repos depletion.TransactionalRepositories, id uuid.UUID) (bool, error) {
	l, err := repos.LivestockRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return false, err
	}

	batches, err := repos.BatchRepo().FindByLivestock(ctx, l.ID)
	if err != nil {
		return false, err
	}

	total := livestock.SumAvailable(batches)
	if total < 0 {
		total = 0
	}
	if l.CurrentQuantity == total {
		return false, nil
	}

	s.logger.Warn("livestock snapshot drifted from batch sums",
		zap.String("livestock_id", l.ID.String()),
		zap.Int64("stored", l.CurrentQuantity),
		zap.Int64("computed", total),
	)

	l.RefreshSnapshot(total)
	l.IncrementVersion()
	if err := repos.LivestockRepo().SaveWithLock(ctx, l); err != nil {
		return false, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, livestock.NewSnapshotRefreshedEvent(l)); err != nil {
			s.logger.Warn("failed to publish snapshot event", zap.Error(err))
		}
	}
	return true, nil
}
