// Package scheduler periodically runs fetch cycles so the listing cache
// stays warm between searches.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/listing"
)

// Warmer runs one fetch cycle.
type Warmer interface {
	Collect(ctx context.Context) ([]listing.JobListing, []aggregator.FetchResult, error)
}

// Scheduler wraps robfig/cron and triggers warm-up cycles.
type Scheduler struct {
	cron   *cron.Cron
	warmer Warmer
	spec   string // cron spec, e.g. "@every 10m"
	logger *slog.Logger
}

// New creates a Scheduler that runs warmer on spec. Overlapping runs are
// skipped.
func New(warmer Warmer, spec string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		warmer: warmer,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the warm-up job and starts the scheduler. One cycle runs
// immediately so the cache is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.warm(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("warm-up scheduler started", slog.String("schedule", s.spec))

	go s.warm(ctx)

	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish or ctx
// to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("warm-up scheduler stopped")
}

func (s *Scheduler) warm(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	listings, results, err := s.warmer.Collect(ctx)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "warm-up cycle failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("warm-up cycle complete",
		slog.Int("sources", len(results)),
		slog.Int("listings", len(listings)),
		slog.Duration("duration", time.Since(start)),
	)
}
