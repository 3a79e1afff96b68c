package source

import "context"

// Repository defines the interface for job source persistence.
// Drafts passed to Add and Update are expected to be validated already.
// List and ListEnabled return sources in ID (insertion) order.
type Repository interface {
	// Add stores a new enabled source and returns its ID.
	// IDs are never reused, even after deletion.
	Add(ctx context.Context, d Draft) (int64, error)

	// Update replaces the editable fields of a source.
	// Returns ErrNotFound if the source does not exist.
	Update(ctx context.Context, id int64, d Draft) error

	// SetEnabled sets the enabled flag of a source.
	// Returns ErrNotFound if the source does not exist.
	SetEnabled(ctx context.Context, id int64, enabled bool) error

	// Delete removes a source.
	// Returns ErrNotFound if the source does not exist.
	Delete(ctx context.Context, id int64) error

	// List returns all sources.
	List(ctx context.Context) ([]JobSource, error)

	// ListEnabled returns the sources whose enabled flag is set.
	ListEnabled(ctx context.Context) ([]JobSource, error)
}
