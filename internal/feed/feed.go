// Package feed fetches raw job records from external portals.
//
// Each fetch type has its own Adapter: RSSAdapter parses RSS/Atom markup
// and JSONAdapter parses arrays of JSON objects. Adapters never retry;
// retry policy belongs to the caller. Failures are reported as errors
// wrapping ErrFetch, ErrParse or ErrTimedOut so that Classify can map them
// to a per-source Status.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/jobfeed-api/internal/source"
)

// Static errors for fetch operations.
var (
	// ErrFetch is returned when the network retrieval fails or the portal
	// answers with a non-2xx status.
	ErrFetch = errors.New("feed: fetch failed")
	// ErrParse is returned when the payload is not in the expected format.
	ErrParse = errors.New("feed: parse failed")
	// ErrTimedOut is returned when the retrieval exceeds its deadline.
	ErrTimedOut = errors.New("feed: timed out")
	// ErrUnsupportedType is returned when no adapter handles a fetch type.
	ErrUnsupportedType = errors.New("feed: unsupported fetch type")
)

// Status is the outcome of fetching one source.
type Status string

const (
	StatusOK         Status = "ok"
	StatusTimedOut   Status = "timedOut"
	StatusFetchError Status = "fetchError"
	StatusParseError Status = "parseError"
)

// Classify maps a fetch error to a Status. A nil error is StatusOK.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	case errors.Is(err, ErrParse):
		return StatusParseError
	default:
		return StatusFetchError
	}
}

// RawRecord is one job record as extracted from a portal, before
// normalization. Fields the portal does not provide are left empty.
type RawRecord struct {
	Title       string
	Link        string
	Published   string
	Description string
	Company     string
	Location    string
}

// Adapter fetches the raw records of one source.
type Adapter interface {
	Fetch(ctx context.Context, src source.JobSource) ([]RawRecord, error)
}

// Compile-time check that Registry implements Adapter.
var _ Adapter = (*Registry)(nil)

// Registry dispatches to the adapter registered for a source's fetch type.
type Registry struct {
	adapters map[source.FetchType]Adapter
}

// NewRegistry creates a registry with the RSS and JSON adapters sharing
// one HTTP client.
func NewRegistry(client *Client) *Registry {
	r := &Registry{adapters: make(map[source.FetchType]Adapter)}
	r.Register(source.FetchTypeRSS, NewRSSAdapter(client))
	r.Register(source.FetchTypeJSON, NewJSONAdapter(client))
	return r
}

// Register sets the adapter for a fetch type, replacing any previous one.
func (r *Registry) Register(t source.FetchType, a Adapter) {
	r.adapters[t] = a
}

// Fetch implements Adapter.
func (r *Registry) Fetch(ctx context.Context, src source.JobSource) ([]RawRecord, error) {
	a, ok := r.adapters[src.FetchType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedType, src.FetchType)
	}
	return a.Fetch(ctx, src)
}
