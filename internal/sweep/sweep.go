// Package sweep periodically re-triggers verification for diplomas that are
// still pending with nothing extracted, typically because an earlier run
// failed before reaching the model. Re-verification is idempotent, so
// sweeping a record that a user retried in the meantime is harmless.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/pipeline"
	"github.com/talentbridge/diploma-verifier/internal/store"
)

const (
	defaultOlderThan = time.Hour
	defaultBatchSize = 20
)

// DiplomaLister lists pending diplomas eligible for a retry.
type DiplomaLister interface {
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]store.Diploma, error)
}

// Runner executes a single verification run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Sweeper re-runs verification for stale pending diplomas in bounded batches.
type Sweeper struct {
	lister    DiplomaLister
	runner    Runner
	olderThan time.Duration
	batchSize int
	logger    *zap.Logger
}

func New(lister DiplomaLister, runner Runner, olderThan time.Duration, batchSize int, logger *zap.Logger) *Sweeper {
	if olderThan <= 0 {
		olderThan = defaultOlderThan
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		lister:    lister,
		runner:    runner,
		olderThan: olderThan,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Start schedules the sweep on the given cron expression and returns the
// running scheduler so the caller can stop it on shutdown.
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info("re-verification sweep scheduled", zap.String("schedule", schedule))

	return c, nil
}

// RunOnce lists one batch of stale pending diplomas and re-runs verification
// for each. Individual failures are logged and do not stop the batch.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	diplomas, err := s.lister.ListStalePending(ctx, s.olderThan, s.batchSize)
	if err != nil {
		return fmt.Errorf("list stale pending: %w", err)
	}

	if len(diplomas) == 0 {
		s.logger.Debug("no stale pending diplomas")
		return nil
	}

	s.logger.Info("sweeping stale pending diplomas", zap.Int("count", len(diplomas)))

	retried, failed := 0, 0
	for _, d := range diplomas {
		result, err := s.runner.Run(ctx, pipeline.Request{
			DiplomaID: d.ID,
			TalentID:  d.TalentID,
			FilePath:  d.FilePath,
		})
		if err != nil {
			failed++
			s.logger.Warn("sweep re-verification failed",
				zap.String("diploma_id", d.ID),
				zap.Error(err),
			)
			continue
		}

		retried++
		s.logger.Info("sweep re-verification completed",
			zap.String("diploma_id", d.ID),
			zap.String("status", string(result.Status)),
		)
	}

	s.logger.Info("sweep finished",
		zap.Int("retried", retried),
		zap.Int("failed", failed),
	)

	return nil
}
