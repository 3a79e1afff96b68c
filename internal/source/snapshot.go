package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maauso/jobfeed-api/internal/storage"
)

// DefaultSnapshotKey is the storage key of the registry snapshot.
const DefaultSnapshotKey = "sources.json"

// snapshot is the persisted form of a MemoryRepository.
type snapshot struct {
	NextID  int64       `json:"next_id"`
	Sources []JobSource `json:"sources"`
}

// Snapshots persists the registry state as a JSON document in a
// storage.Storage backend (local disk or S3).
type Snapshots struct {
	store storage.Storage
	key   string
}

// NewSnapshots creates a snapshot writer for the given storage and key.
// An empty key uses DefaultSnapshotKey.
func NewSnapshots(store storage.Storage, key string) *Snapshots {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &Snapshots{store: store, key: key}
}

func (s *Snapshots) save(ctx context.Context, snap snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.store.Save(ctx, s.key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// load returns the stored snapshot, or ok=false if none exists yet.
func (s *Snapshots) load(ctx context.Context) (snapshot, bool, error) {
	rc, err := s.store.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return snapshot{}, false, nil
		}
		return snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var snap snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
