package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBlobStoreRoundTrip(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, &Blob{Type: Snapshot, Version: 1, Data: []byte("snap-1")}))
	require.NoError(t, store.Store(ctx, &Blob{Type: Delta, FromVersion: 1, ToVersion: 2, Data: []byte("delta-1-2")}))

	snap := store.RetrieveSnapshotBlob(1)
	require.NotNil(t, snap)
	assert.Equal(t, []byte("snap-1"), snap.Data)

	delta := store.RetrieveDeltaBlob(1)
	require.NotNil(t, delta)
	assert.Equal(t, []byte("delta-1-2"), delta.Data)

	assert.Nil(t, store.RetrieveSnapshotBlob(999))
}

func TestInMemoryBlobStoreListVersionsIsSorted(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()

	for _, v := range []int64{5, 1, 3} {
		require.NoError(t, store.Store(ctx, &Blob{Type: Snapshot, Version: v}))
	}

	assert.Equal(t, []int64{1, 3, 5}, store.ListVersions())
}

func TestInMemoryBlobStoreRemoveSnapshot(t *testing.T) {
	store := NewInMemoryBlobStore()
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, &Blob{Type: Snapshot, Version: 1}))

	require.NoError(t, store.RemoveSnapshot(1))
	assert.Nil(t, store.RetrieveSnapshotBlob(1))
}

func TestInMemoryBlobStoreRejectsUnknownType(t *testing.T) {
	store := NewInMemoryBlobStore()
	err := store.Store(context.Background(), &Blob{Type: Type(99)})
	assert.Error(t, err)
}
