// Package blob defines the storage contract for shadow-tree snapshots
// and mutation deltas: a Blob envelope plus the BlobStore/BlobRetriever
// interfaces a producer writes to and a consumer reads from.
package blob

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Type identifies what kind of payload a Blob carries.
type Type int

const (
	// Snapshot carries a full, msgpack-encoded shadow-node tree.
	Snapshot Type = iota
	// Delta carries a msgpack-encoded mutation.List transforming
	// FromVersion's tree into ToVersion's.
	Delta
	// Reverse carries the mutation.List that undoes a Delta, for
	// rolling a consumer back to an earlier revision.
	Reverse
)

// Blob is a serialized, versioned payload moving through a BlobStore.
type Blob struct {
	Type        Type
	Version     int64
	FromVersion int64
	ToVersion   int64
	Data        []byte
	Checksum    uint64
	Metadata    map[string]string
}

// BlobStore is the producer-side contract: write new revisions, prune
// old ones.
type BlobStore interface {
	Store(ctx context.Context, blob *Blob) error
	RetrieveSnapshotBlob(version int64) *Blob
	RetrieveDeltaBlob(fromVersion int64) *Blob
	RetrieveReverseBlob(toVersion int64) *Blob
	RemoveSnapshot(version int64) error
	ListVersions() []int64
}

// BlobRetriever is the consumer-side contract: read-only access to the
// same store.
type BlobRetriever interface {
	RetrieveSnapshotBlob(version int64) *Blob
	RetrieveDeltaBlob(fromVersion int64) *Blob
	RetrieveReverseBlob(toVersion int64) *Blob
	ListVersions() []int64
}

// InMemoryBlobStore is an in-process BlobStore, used by tests and by
// single-process producer/consumer wiring.
type InMemoryBlobStore struct {
	mu        sync.RWMutex
	snapshots map[int64]*Blob
	deltas    map[int64]*Blob
	reverses  map[int64]*Blob
}

// NewInMemoryBlobStore creates an empty in-memory blob store.
func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		snapshots: make(map[int64]*Blob),
		deltas:    make(map[int64]*Blob),
		reverses:  make(map[int64]*Blob),
	}
}

func (s *InMemoryBlobStore) Store(ctx context.Context, blob *Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch blob.Type {
	case Snapshot:
		s.snapshots[blob.Version] = blob
	case Delta:
		s.deltas[blob.FromVersion] = blob
	case Reverse:
		s.reverses[blob.ToVersion] = blob
	default:
		return errors.New("blob: unknown blob type")
	}
	return nil
}

func (s *InMemoryBlobStore) RetrieveSnapshotBlob(version int64) *Blob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[version]
}

func (s *InMemoryBlobStore) RetrieveDeltaBlob(fromVersion int64) *Blob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deltas[fromVersion]
}

func (s *InMemoryBlobStore) RetrieveReverseBlob(toVersion int64) *Blob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reverses[toVersion]
}

func (s *InMemoryBlobStore) RemoveSnapshot(version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, version)
	return nil
}

func (s *InMemoryBlobStore) ListVersions() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]int64, 0, len(s.snapshots))
	for version := range s.snapshots {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}
