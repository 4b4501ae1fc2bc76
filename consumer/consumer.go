// Package consumer tracks a blob.Announcer's revisions, fetching and
// applying each new delta (or seeding from a snapshot) to keep a local
// host-tree model in sync with a producer.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leowmjw/shadowdiff/apply"
	"github.com/leowmjw/shadowdiff/blob"
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
	"github.com/leowmjw/shadowdiff/wire"
)

// Option configures a Consumer.
type Option func(*Consumer)

// WithBlobRetriever sets where snapshots and deltas are read from.
// Required.
func WithBlobRetriever(retriever blob.BlobRetriever) Option {
	return func(c *Consumer) { c.retriever = retriever }
}

// WithVersionCursor sets the cursor used to discover the latest
// revision. Required.
func WithVersionCursor(cursor blob.VersionCursor) Option {
	return func(c *Consumer) { c.cursor = cursor }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) { c.logger = logger }
}

// MutationListener is notified with the mutations applied by each
// successful Sync step, in order.
type MutationListener func(version int64, muts mutation.List)

// WithMutationListener registers a callback invoked after each
// successful sync step that advanced the tree via a delta (not a
// snapshot-only jump).
func WithMutationListener(fn MutationListener) Option {
	return func(c *Consumer) { c.listener = fn }
}

// Consumer holds a host-tree model of the last-synced shadow-node tree
// and its revision number.
type Consumer struct {
	retriever blob.BlobRetriever
	cursor    blob.VersionCursor
	logger    *slog.Logger
	listener  MutationListener

	version int64
	rootTag shadowtree.Tag
	tree    *apply.HostTree
}

// New creates a Consumer. WithBlobRetriever and WithVersionCursor must
// both be supplied.
func New(opts ...Option) (*Consumer, error) {
	c := &Consumer{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.retriever == nil {
		return nil, fmt.Errorf("consumer: blob retriever is required")
	}
	if c.cursor == nil {
		return nil, fmt.Errorf("consumer: version cursor is required")
	}
	return c, nil
}

// Version returns the revision number of the tree currently held.
func (c *Consumer) Version() int64 {
	return c.version
}

// RootTag returns the tag of the tree's root. Only meaningful once
// Tree is non-nil.
func (c *Consumer) RootTag() shadowtree.Tag {
	return c.rootTag
}

// Tree returns the consumer's current host-tree model, or nil before
// the first successful Sync.
func (c *Consumer) Tree() *apply.HostTree {
	return c.tree
}

// Sync advances the consumer to the cursor's current revision. Every
// revision after the first always has a delta blob (the producer
// writes one on every Produce call regardless of its snapshot
// interval), so Sync walks forward by applying each delta directly to
// the host-tree model in memory; it only falls back to decoding a full
// snapshot when the consumer has never synced, or a delta is missing
// (e.g. pruned).
func (c *Consumer) Sync(ctx context.Context) error {
	target := c.cursor.Latest()
	if target == c.version {
		return nil
	}

	if c.tree == nil {
		return c.syncFromSnapshot(ctx, target)
	}

	for c.version < target {
		delta := c.retriever.RetrieveDeltaBlob(c.version)
		if delta == nil {
			return c.syncFromSnapshot(ctx, target)
		}

		muts, err := wire.DecodeMutations(delta.Data)
		if err != nil {
			return fmt.Errorf("consumer: decode delta from %d: %w", c.version, err)
		}

		if err := c.tree.Apply(muts); err != nil {
			return fmt.Errorf("consumer: apply delta from %d to %d: %w", c.version, delta.ToVersion, err)
		}

		c.version = delta.ToVersion
		if c.listener != nil {
			c.listener(c.version, muts)
		}
		c.logger.Info("consumer advanced", "version", c.version, "mutations", len(muts))
	}

	return nil
}

func (c *Consumer) syncFromSnapshot(ctx context.Context, target int64) error {
	snap := c.retriever.RetrieveSnapshotBlob(target)
	if snap == nil {
		return fmt.Errorf("consumer: no snapshot available for version %d", target)
	}

	root, err := wire.DecodeSnapshot(snap.Data)
	if err != nil {
		return fmt.Errorf("consumer: decode snapshot %d: %w", target, err)
	}

	host, err := apply.FromNode(root)
	if err != nil {
		return fmt.Errorf("consumer: seed host tree from snapshot %d: %w", target, err)
	}

	c.tree = host
	c.rootTag = root.Tag
	c.version = target
	c.logger.Info("consumer jumped to snapshot", "version", target)
	return nil
}

// Refresh re-syncs the consumer against the latest announced version.
// It exists for pull-based triggers (like FileWatcher) that notice a
// change happened but don't themselves carry a version number.
func (c *Consumer) Refresh() error {
	return c.Sync(context.Background())
}

// Watch subscribes to ann, syncs once to catch up with any revision
// announced before the subscription existed, then calls Sync on every
// announcement until ctx is cancelled, logging (but not returning) sync
// errors so a single bad revision doesn't tear down the watch loop.
func (c *Consumer) Watch(ctx context.Context, ann blob.Subscribable) error {
	sub, err := ann.Subscribe(16)
	if err != nil {
		return fmt.Errorf("consumer: subscribe: %w", err)
	}
	defer sub.Close()

	if err := c.Sync(ctx); err != nil {
		c.logger.Error("consumer sync failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.Updates():
			if err := c.Sync(ctx); err != nil {
				c.logger.Error("consumer sync failed", "error", err)
			}
		}
	}
}
