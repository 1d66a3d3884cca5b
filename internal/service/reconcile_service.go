package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"funding-core/pkg/logger"
	"funding-core/pkg/monitor"
	"funding-core/pkg/utils/lock"
)

// ReconcileService is the out-of-band repair path for events whose handler
// failed after admission. The idempotency gate swallows redelivery of an
// admitted event, so without this sweep a handler failure (donation not
// found, transient DB error) would never heal.
type ReconcileService struct {
	store    LedgerStore
	webhooks *WebhookService
	cron     *cron.Cron
	redis    *redis.Client

	schedule  string
	grace     time.Duration
	batchSize int
}

func NewReconcileService(store LedgerStore, webhooks *WebhookService, rdb *redis.Client, schedule string, grace time.Duration, batchSize int) *ReconcileService {
	return &ReconcileService{
		store:     store,
		webhooks:  webhooks,
		cron:      cron.New(),
		redis:     rdb,
		schedule:  schedule,
		grace:     grace,
		batchSize: batchSize,
	}
}

func (s *ReconcileService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweepWithLock); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("reconciliation sweeper started", zap.String("schedule", s.schedule))
	return nil
}

func (s *ReconcileService) Stop() {
	s.cron.Stop()
	logger.Info("reconciliation sweeper stopped")
}

func (s *ReconcileService) sweepWithLock() {
	ctx := context.Background()
	lockKey := "cron:reconcile_sweep"

	// Single-flight across instances
	locker := lock.NewRedisLock(s.redis)
	locked, err := locker.Acquire(ctx, lockKey, 60*time.Second)
	if err != nil || !locked {
		logger.Debug("reconcile sweep skipped, lock held elsewhere")
		return
	}
	defer locker.Release(ctx, lockKey)

	if _, err := s.Sweep(ctx); err != nil {
		logger.Error("reconcile sweep failed", zap.Error(err))
	}
}

// Sweep re-dispatches unprocessed events older than the grace period and
// returns how many were retried. Fresh events are left to the inline path.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		monitor.Business.ReconcileSweepDuration.Observe(time.Since(start).Seconds())
	}()

	cutoff := time.Now().Add(-s.grace)
	events, err := s.store.UnprocessedEvents(ctx, cutoff, s.batchSize)
	if err != nil {
		return 0, err
	}

	for _, ev := range events {
		logger.Info("reconciling webhook event",
			zap.String("event_id", ev.ProviderEventID),
			zap.String("kind", ev.EventKind),
			zap.String("last_error", ev.ProcessingError))
		s.webhooks.Process(ctx, ev.ProviderEventID, ev.EventKind, ev.Payload)
	}

	return len(events), nil
}
