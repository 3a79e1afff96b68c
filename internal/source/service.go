package source

import (
	"context"
	"log/slog"

	"github.com/maauso/jobfeed-api/internal/access"
)

// Service is the job source registry use case. It validates admin input
// and applies the access gate before any repository mutation, so callers
// without the admin role never change state.
type Service struct {
	repo   Repository
	gate   access.Gate
	logger *slog.Logger
}

// NewService creates a new Service. A nil gate uses access.IsAdmin.
func NewService(repo Repository, gate access.Gate, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = access.IsAdmin
	}
	return &Service{
		repo:   repo,
		gate:   gate,
		logger: logger,
	}
}

// Authorize returns access.ErrUnauthorized unless the caller may manage
// sources. Mutating methods check it themselves; transports call it early
// to reject callers before decoding their input.
func (s *Service) Authorize(ctx context.Context) error {
	return s.gate.Require(ctx)
}

// Add registers a new source and returns its ID.
func (s *Service) Add(ctx context.Context, d Draft) (int64, error) {
	if err := s.gate.Require(ctx); err != nil {
		return 0, err
	}
	d, err := Validate(d)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Add(ctx, d)
	if err != nil {
		s.logger.Error("failed to add job source",
			slog.String("name", d.Name),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	s.logger.Info("job source added",
		slog.Int64("source_id", id),
		slog.String("name", d.Name),
		slog.String("fetch_type", string(d.FetchType)),
	)
	return id, nil
}

// Update replaces name, URL and fetch type of an existing source.
func (s *Service) Update(ctx context.Context, id int64, d Draft) error {
	if err := s.gate.Require(ctx); err != nil {
		return err
	}
	d, err := Validate(d)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, d); err != nil {
		return err
	}

	s.logger.Info("job source updated",
		slog.Int64("source_id", id),
		slog.String("name", d.Name),
	)
	return nil
}

// Toggle enables or disables a source. Setting the current value again
// is a no-op.
func (s *Service) Toggle(ctx context.Context, id int64, enabled bool) error {
	if err := s.gate.Require(ctx); err != nil {
		return err
	}
	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}

	s.logger.Info("job source toggled",
		slog.Int64("source_id", id),
		slog.Bool("enabled", enabled),
	)
	return nil
}

// Delete removes a source.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.gate.Require(ctx); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("job source deleted", slog.Int64("source_id", id))
	return nil
}

// List returns every configured source. Reads are not gated; transports
// that expose the full registry only to admins call Authorize first.
func (s *Service) List(ctx context.Context) ([]JobSource, error) {
	return s.repo.List(ctx)
}

// ListEnabled returns the enabled sources. Available to any caller.
func (s *Service) ListEnabled(ctx context.Context) ([]JobSource, error) {
	return s.repo.ListEnabled(ctx)
}
