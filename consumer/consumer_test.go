package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/shadowdiff/blob"
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/producer"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

func node(tag shadowtree.Tag, name string) *shadowtree.Node {
	return &shadowtree.Node{
		Tag:           tag,
		Family:        shadowtree.FamilyID(tag),
		ComponentName: name,
		Traits:        shadowtree.FormsView.Set(shadowtree.FormsStackingContext),
	}
}

func TestNewRequiresRetrieverAndCursor(t *testing.T) {
	_, err := New()
	assert.Error(t, err)

	store := blob.NewInMemoryBlobStore()
	_, err = New(WithBlobRetriever(store))
	assert.Error(t, err)
}

func TestSyncTracksProducerAcrossRevisions(t *testing.T) {
	store := blob.NewInMemoryBlobStore()
	feed := blob.NewInMemoryFeed()

	p, err := producer.New(producer.WithBlobStore(store), producer.WithAnnouncer(feed))
	require.NoError(t, err)

	var observed []mutation.List
	c, err := New(
		WithBlobRetriever(store),
		WithVersionCursor(feed),
		WithMutationListener(func(version int64, muts mutation.List) {
			observed = append(observed, muts)
		}),
	)
	require.NoError(t, err)

	root1 := node(1, shadowtree.RootComponentName)
	_, err = p.Produce(context.Background(), root1)
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(1), c.Version())
	assert.Equal(t, shadowtree.Tag(1), c.RootTag())

	root2 := node(1, shadowtree.RootComponentName)
	root2.Children = []*shadowtree.Node{{Tag: 2, Family: 2, ComponentName: "A", Traits: shadowtree.FormsView}}
	_, err = p.Produce(context.Background(), root2)
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(2), c.Version())
	require.Len(t, c.Tree().Children(c.RootTag()), 1)
	assert.Len(t, observed, 1)
}

// TestSyncAppliesDeltasAcrossSparseSnapshots exercises WithSnapshotInterval
// with a value greater than 1: revision 2 is stored as a delta only, with
// no snapshot blob, and Sync must still reach revision 3 by applying both
// deltas in order rather than requiring a snapshot at every step.
func TestSyncAppliesDeltasAcrossSparseSnapshots(t *testing.T) {
	store := blob.NewInMemoryBlobStore()
	feed := blob.NewInMemoryFeed()

	p, err := producer.New(
		producer.WithBlobStore(store),
		producer.WithAnnouncer(feed),
		producer.WithSnapshotInterval(3),
	)
	require.NoError(t, err)

	c, err := New(WithBlobRetriever(store), WithVersionCursor(feed))
	require.NoError(t, err)

	_, err = p.Produce(context.Background(), node(1, shadowtree.RootComponentName))
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(1), c.Version())

	root2 := node(1, shadowtree.RootComponentName)
	root2.Children = []*shadowtree.Node{{Tag: 2, Family: 2, ComponentName: "A", Traits: shadowtree.FormsView}}
	_, err = p.Produce(context.Background(), root2)
	require.NoError(t, err)
	require.Nil(t, store.RetrieveSnapshotBlob(2))

	root3 := node(1, shadowtree.RootComponentName)
	root3.Children = []*shadowtree.Node{
		{Tag: 2, Family: 2, ComponentName: "A", Traits: shadowtree.FormsView},
		{Tag: 3, Family: 3, ComponentName: "B", Traits: shadowtree.FormsView},
	}
	_, err = p.Produce(context.Background(), root3)
	require.NoError(t, err)

	require.NoError(t, c.Sync(context.Background()))
	assert.Equal(t, int64(3), c.Version())
	assert.Len(t, c.Tree().Children(c.RootTag()), 2)
}

func TestWatchAppliesAnnouncedRevisions(t *testing.T) {
	store := blob.NewInMemoryBlobStore()
	feed := blob.NewInMemoryFeed()

	p, err := producer.New(producer.WithBlobStore(store), producer.WithAnnouncer(feed))
	require.NoError(t, err)

	c, err := New(WithBlobRetriever(store), WithVersionCursor(feed))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = c.Watch(ctx, feed)
	}()

	_, err = p.Produce(context.Background(), node(1, shadowtree.RootComponentName))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return c.Version() == 1 }, time.Second, 5*time.Millisecond)
}
