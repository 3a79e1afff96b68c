// Package aggregator runs fetch cycles over the enabled job sources.
//
// One cycle fans out a fetch per enabled source, bounded by a global
// concurrency limit, and merges the normalized listings in source order.
// Overlapping cycles share in-flight fetches of the same source.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/maauso/jobfeed-api/internal/feed"
	"github.com/maauso/jobfeed-api/internal/listing"
	"github.com/maauso/jobfeed-api/internal/source"
)

// Defaults for the fetch cycle.
const (
	DefaultMaxConcurrency = 8
	DefaultSourceTimeout  = 5 * time.Second
	DefaultCycleTimeout   = 10 * time.Second
	DefaultRetryBackoff   = 200 * time.Millisecond
)

// ErrAllSourcesFailed is returned when every enabled source failed in one cycle.
var ErrAllSourcesFailed = errors.New("all job sources failed")

// SourceLister provides the sources a cycle fetches.
type SourceLister interface {
	ListEnabled(ctx context.Context) ([]source.JobSource, error)
}

// Cache stores the normalized listings of a source between cycles.
// Implementations own the expiry policy.
type Cache interface {
	Get(ctx context.Context, key string) ([]listing.JobListing, bool, error)
	Set(ctx context.Context, key string, listings []listing.JobListing) error
}

// FetchResult is the outcome of fetching one source in a cycle.
type FetchResult struct {
	SourceID   int64
	SourceName string
	Listings   []listing.JobListing
	Status     feed.Status
	Err        error
}

// Orchestrator collects listings from all enabled sources.
type Orchestrator struct {
	sources SourceLister
	adapter feed.Adapter
	cache   Cache
	logger  *slog.Logger

	maxConcurrency int
	sourceTimeout  time.Duration
	cycleTimeout   time.Duration
	retries        int
	retryBackoff   time.Duration

	slots  *semaphore.Weighted
	flight singleflight.Group
}

// Option is a function that configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxConcurrency limits how many sources are fetched at once.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithSourceTimeout sets the deadline of a single fetch attempt.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sourceTimeout = d
		}
	}
}

// WithCycleTimeout sets the deadline of a whole cycle.
func WithCycleTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.cycleTimeout = d
		}
	}
}

// WithRetries sets how many extra attempts a source gets after a fetch
// error. Parse errors and timeouts are never retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.retries = n
		}
		if backoff >= 0 {
			o.retryBackoff = backoff
		}
	}
}

// WithCache enables caching of successful fetches.
func WithCache(c Cache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(sources SourceLister, adapter feed.Adapter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources:        sources,
		adapter:        adapter,
		logger:         slog.Default(),
		maxConcurrency: DefaultMaxConcurrency,
		sourceTimeout:  DefaultSourceTimeout,
		cycleTimeout:   DefaultCycleTimeout,
		retryBackoff:   DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.slots = semaphore.NewWeighted(int64(o.maxConcurrency))
	return o
}

// Collect runs one fetch cycle and returns the merged listings together
// with the per-source results.
//
// Sources that fail contribute no listings. Sources still pending when the
// cycle deadline passes are reported as timed out. Collect fails only when
// every enabled source failed, or when ctx itself was cancelled.
func (o *Orchestrator) Collect(ctx context.Context) ([]listing.JobListing, []FetchResult, error) {
	start := time.Now()

	sources, err := o.sources.ListEnabled(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list enabled sources: %w", err)
	}
	if len(sources) == 0 {
		return []listing.JobListing{}, []FetchResult{}, nil
	}

	cycleCtx, cancel := context.WithTimeout(ctx, o.cycleTimeout)
	defer cancel()

	results := make([]FetchResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Go(func() {
			results[i] = o.collectSource(cycleCtx, src)
		})
	}
	wg.Wait()

	merged := []listing.JobListing{}
	var errs []error
	for _, r := range results {
		if r.Status != feed.StatusOK {
			o.logger.Warn("job source failed",
				slog.Int64("source_id", r.SourceID),
				slog.String("source_name", r.SourceName),
				slog.String("status", string(r.Status)),
				slog.String("error", r.Err.Error()),
			)
			errs = append(errs, fmt.Errorf("source %d (%s): %w", r.SourceID, r.SourceName, r.Err))
			continue
		}
		merged = append(merged, r.Listings...)
	}

	o.logger.Info("fetch cycle finished",
		slog.Int("sources", len(results)),
		slog.Int("ok", len(results)-len(errs)),
		slog.Int("failed", len(errs)),
		slog.Int("listings", len(merged)),
		slog.Duration("duration", time.Since(start)),
	)

	if len(errs) == len(results) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, results, ctxErr
		}
		return nil, results, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	return merged, results, nil
}

// collectSource waits for the shared fetch of src or for the cycle deadline.
func (o *Orchestrator) collectSource(ctx context.Context, src source.JobSource) FetchResult {
	result := FetchResult{SourceID: src.ID, SourceName: src.Name}

	// The shared fetch must outlive any single caller; it is bounded by
	// its own timeouts instead.
	detached := context.WithoutCancel(ctx)
	ch := o.flight.DoChan(Key(src), func() (any, error) {
		return o.fetch(detached, src)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			result.Status = feed.Classify(res.Err)
			result.Err = res.Err
			return result
		}
		shared, _ := res.Val.([]listing.JobListing)
		result.Listings = make([]listing.JobListing, len(shared))
		for i, l := range shared {
			l.Source = src.Name
			result.Listings[i] = l
		}
		result.Status = feed.StatusOK
		return result
	case <-ctx.Done():
		// Only the cycle deadline is a timeout; a cancelled caller is not.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Status = feed.StatusTimedOut
			result.Err = fmt.Errorf("%w: %w", feed.ErrTimedOut, ctx.Err())
		} else {
			result.Status = feed.StatusFetchError
			result.Err = fmt.Errorf("%w: %w", feed.ErrFetch, ctx.Err())
		}
		return result
	}
}

// fetch retrieves and normalizes the listings of src, consulting the cache first.
func (o *Orchestrator) fetch(ctx context.Context, src source.JobSource) ([]listing.JobListing, error) {
	key := Key(src)

	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, key)
		switch {
		case err != nil:
			o.logger.Warn("listing cache read failed",
				slog.Int64("source_id", src.ID),
				slog.String("error", err.Error()),
			)
		case ok:
			return cached, nil
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.cycleTimeout)
	err := o.slots.Acquire(waitCtx, 1)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for fetch slot: %w", feed.ErrTimedOut, err)
	}
	defer o.slots.Release(1)

	records, err := o.fetchWithRetry(ctx, src)
	if err != nil {
		return nil, err
	}
	listings := listing.NormalizeAll(records, src.Name)

	if o.cache != nil {
		if err := o.cache.Set(ctx, key, listings); err != nil {
			o.logger.Warn("listing cache write failed",
				slog.Int64("source_id", src.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return listings, nil
}

func (o *Orchestrator) fetchWithRetry(ctx context.Context, src source.JobSource) ([]feed.RawRecord, error) {
	for attempt := 0; ; attempt++ {
		records, err := o.fetchOnce(ctx, src)
		if err == nil {
			return records, nil
		}
		if attempt >= o.retries || feed.Classify(err) != feed.StatusFetchError {
			return nil, err
		}

		o.logger.Debug("retrying job source",
			slog.Int64("source_id", src.ID),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(o.retryBackoff):
		}
	}
}

func (o *Orchestrator) fetchOnce(ctx context.Context, src source.JobSource) ([]feed.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	return o.adapter.Fetch(ctx, src)
}

// Key identifies the fetched content of a source. It changes whenever the
// source's URL or fetch type is edited.
func Key(src source.JobSource) string {
	return fmt.Sprintf("%d|%s|%s", src.ID, src.FetchType, src.URL)
}
