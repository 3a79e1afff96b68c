// Package source provides the registry of admin-configured job portals.
// It includes the JobSource entity, validation of admin input, repository
// implementations (in-memory with optional snapshots, PostgreSQL) and the
// access-gated Service used by the HTTP layer.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// FetchType is the wire format a job source exposes its listings in.
type FetchType string

const (
	// FetchTypeRSS is an RSS or Atom feed.
	FetchTypeRSS FetchType = "rss"
	// FetchTypeJSON is a JSON array of job records.
	FetchTypeJSON FetchType = "json"
)

// IsValid returns true if the fetch type is supported.
func (t FetchType) IsValid() bool {
	return t == FetchTypeRSS || t == FetchTypeJSON
}

// Static errors for job source operations.
var (
	// ErrNotFound is returned when a job source cannot be found by ID.
	ErrNotFound = errors.New("job source not found")
	// ErrValidation is returned when a job source draft is malformed.
	ErrValidation = errors.New("invalid job source")
)

// JobSource is a configured external job portal.
type JobSource struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	FetchType FetchType `json:"fetchType"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
}

// Draft holds the admin-editable fields of a JobSource.
type Draft struct {
	Name      string
	URL       string
	FetchType FetchType
}

// Validate trims the draft and checks it. The returned error wraps
// ErrValidation.
func Validate(d Draft) (Draft, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.URL = strings.TrimSpace(d.URL)
	d.FetchType = FetchType(strings.ToLower(strings.TrimSpace(string(d.FetchType))))

	if d.Name == "" {
		return Draft{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if d.URL == "" {
		return Draft{}, fmt.Errorf("%w: url is required", ErrValidation)
	}
	if err := validateURL(d.URL); err != nil {
		return Draft{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if !d.FetchType.IsValid() {
		return Draft{}, fmt.Errorf("%w: unsupported fetch type %q", ErrValidation, d.FetchType)
	}
	return d, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url is not valid: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}
