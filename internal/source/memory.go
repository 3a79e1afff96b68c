package source

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Compile-time check that MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository is an in-memory implementation of Repository.
// Sources live in a map keyed by ID with a monotonic ID counter. Writers
// are serialized by writeMu and build a new map; when configured with
// Snapshots the new state is persisted first and only then swapped in
// under mu, so readers never wait on storage and never see unpersisted
// state.
type MemoryRepository struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	sources   map[int64]JobSource
	nextID    int64
	snapshots *Snapshots
}

// MemoryOption configures a MemoryRepository.
type MemoryOption func(*MemoryRepository)

// WithSnapshots enables snapshot persistence.
func WithSnapshots(s *Snapshots) MemoryOption {
	return func(r *MemoryRepository) {
		r.snapshots = s
	}
}

// NewMemoryRepository creates a new in-memory job source repository.
func NewMemoryRepository(opts ...MemoryOption) *MemoryRepository {
	r := &MemoryRepository{
		sources: make(map[int64]JobSource),
		nextID:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore loads the last snapshot, if snapshots are configured and one
// exists. It replaces any state held in memory.
func (r *MemoryRepository) Restore(ctx context.Context) error {
	if r.snapshots == nil {
		return nil
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	snap, ok, err := r.snapshots.load(ctx)
	if err != nil || !ok {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = make(map[int64]JobSource, len(snap.Sources))
	maxID := int64(0)
	for _, s := range snap.Sources {
		r.sources[s.ID] = s
		maxID = max(maxID, s.ID)
	}
	// Never hand out an ID that is already present, whatever the file says.
	r.nextID = max(snap.NextID, maxID+1, 1)
	return nil
}

// Add stores a new enabled source.
func (r *MemoryRepository) Add(ctx context.Context, d Draft) (int64, error) {
	var id int64
	err := r.mutate(ctx, func(sources map[int64]JobSource, nextID *int64) error {
		id = *nextID
		*nextID++
		sources[id] = JobSource{
			ID:        id,
			URL:       d.URL,
			FetchType: d.FetchType,
			Name:      d.Name,
			Enabled:   true,
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update replaces name, URL and fetch type of a source.
func (r *MemoryRepository) Update(ctx context.Context, id int64, d Draft) error {
	return r.mutate(ctx, func(sources map[int64]JobSource, _ *int64) error {
		s, ok := sources[id]
		if !ok {
			return ErrNotFound
		}
		s.Name = d.Name
		s.URL = d.URL
		s.FetchType = d.FetchType
		sources[id] = s
		return nil
	})
}

// SetEnabled sets the enabled flag of a source.
func (r *MemoryRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	return r.mutate(ctx, func(sources map[int64]JobSource, _ *int64) error {
		s, ok := sources[id]
		if !ok {
			return ErrNotFound
		}
		s.Enabled = enabled
		sources[id] = s
		return nil
	})
}

// Delete removes a source. Its ID is not reused.
func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	return r.mutate(ctx, func(sources map[int64]JobSource, _ *int64) error {
		if _, ok := sources[id]; !ok {
			return ErrNotFound
		}
		delete(sources, id)
		return nil
	})
}

// List returns all sources ordered by ID.
func (r *MemoryRepository) List(_ context.Context) ([]JobSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sorted(r.sources, false), nil
}

// ListEnabled returns enabled sources ordered by ID.
func (r *MemoryRepository) ListEnabled(_ context.Context) ([]JobSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sorted(r.sources, true), nil
}

func sorted(sources map[int64]JobSource, enabledOnly bool) []JobSource {
	result := make([]JobSource, 0, len(sources))
	for _, id := range slices.Sorted(maps.Keys(sources)) {
		s := sources[id]
		if enabledOnly && !s.Enabled {
			continue
		}
		result = append(result, s)
	}
	return result
}

// mutate applies fn to a copy of the current state, persists the copy and
// then publishes it. On any error the published state is left untouched.
func (r *MemoryRepository) mutate(ctx context.Context, fn func(sources map[int64]JobSource, nextID *int64) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	// Only writers replace r.sources, and writeMu is held.
	next := maps.Clone(r.sources)
	nextID := r.nextID

	if err := fn(next, &nextID); err != nil {
		return err
	}

	if r.snapshots != nil {
		snap := snapshot{NextID: nextID, Sources: sorted(next, false)}
		if err := r.snapshots.save(ctx, snap); err != nil {
			return fmt.Errorf("persist job sources: %w", err)
		}
	}

	r.mu.Lock()
	r.sources = next
	r.nextID = nextID
	r.mu.Unlock()
	return nil
}
