// Package search filters collected job listings.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/listing"
)

// Filter refines a search. Every non-empty keyword must match the title,
// company or location of a listing; a non-empty location must match the
// listing's location.
type Filter struct {
	Keywords []string `json:"keywords"`
	Location string   `json:"location"`
}

// Query is a complete search request.
type Query struct {
	Keyword  string
	Location string
	Filter   *Filter
}

// Matches reports whether l satisfies every part of q. All comparisons are
// case-insensitive substring matches.
func (q Query) Matches(l listing.JobListing) bool {
	title := strings.ToLower(l.Title)
	company := strings.ToLower(l.Company)
	location := strings.ToLower(l.Location)

	kw := strings.ToLower(q.Keyword)
	if !strings.Contains(title, kw) && !strings.Contains(company, kw) {
		return false
	}
	if !strings.Contains(location, strings.ToLower(q.Location)) {
		return false
	}

	if q.Filter == nil {
		return true
	}
	for _, k := range q.Filter.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if !strings.Contains(title, k) && !strings.Contains(company, k) && !strings.Contains(location, k) {
			return false
		}
	}
	if fl := strings.ToLower(strings.TrimSpace(q.Filter.Location)); fl != "" && !strings.Contains(location, fl) {
		return false
	}
	return true
}

// Match returns the listings that satisfy q, preserving their order.
// The result is never nil.
func Match(listings []listing.JobListing, q Query) []listing.JobListing {
	out := []listing.JobListing{}
	for _, l := range listings {
		if q.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// Collector produces the candidate listings of one search.
type Collector interface {
	Collect(ctx context.Context) ([]listing.JobListing, []aggregator.FetchResult, error)
}

// Engine answers searches over freshly collected listings.
type Engine struct {
	collector Collector
	logger    *slog.Logger
}

// NewEngine creates an Engine. A nil logger uses slog.Default().
func NewEngine(collector Collector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{collector: collector, logger: logger}
}

// Search collects listings from every enabled source and returns those
// matching keyword, location and the optional filter, in collection order.
func (e *Engine) Search(ctx context.Context, keyword, location string, filter *Filter) ([]listing.JobListing, error) {
	start := time.Now()

	candidates, _, err := e.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}

	matched := Match(candidates, Query{Keyword: keyword, Location: location, Filter: filter})

	e.logger.Debug("search completed",
		slog.String("keyword", keyword),
		slog.String("location", location),
		slog.Int("candidates", len(candidates)),
		slog.Int("matched", len(matched)),
		slog.Duration("duration", time.Since(start)),
	)
	return matched, nil
}
