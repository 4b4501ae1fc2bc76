// Package producer assembles shadow-tree snapshots and deltas from
// successive Produce calls and hands them to a blob.BlobStore,
// announcing each new revision through a blob.Announcer.
package producer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leowmjw/shadowdiff/blob"
	"github.com/leowmjw/shadowdiff/differ"
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
	"github.com/leowmjw/shadowdiff/wire"
)

// Option configures a Producer.
type Option func(*Producer)

// WithBlobStore sets the store mutations and snapshots are written to.
// Required.
func WithBlobStore(store blob.BlobStore) Option {
	return func(p *Producer) { p.store = store }
}

// WithAnnouncer sets the announcer new revisions are published through.
// Required.
func WithAnnouncer(announcer blob.Announcer) Option {
	return func(p *Producer) { p.announcer = announcer }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Producer) { p.logger = logger }
}

// WithReparentingDetection toggles the differ's reparenting detection
// for every Produce call. Defaults to enabled.
func WithReparentingDetection(enabled bool) Option {
	return func(p *Producer) { p.reparenting = enabled }
}

// WithSnapshotInterval sets how many revisions pass between full
// snapshot blobs; deltas alone are written for the revisions in
// between. Defaults to 1 (a snapshot on every revision).
func WithSnapshotInterval(n int) Option {
	return func(p *Producer) {
		if n > 0 {
			p.snapshotInterval = n
		}
	}
}

// Producer holds the most recently published shadow-node tree and
// diffs each new tree against it to produce the next revision.
type Producer struct {
	store       blob.BlobStore
	announcer   blob.Announcer
	logger      *slog.Logger
	reparenting bool

	snapshotInterval int
	version          int64
	current          *shadowtree.Node
}

// New creates a Producer. WithBlobStore and WithAnnouncer must both be
// supplied.
func New(opts ...Option) (*Producer, error) {
	p := &Producer{
		logger:           slog.Default(),
		reparenting:      true,
		snapshotInterval: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		return nil, fmt.Errorf("producer: blob store is required")
	}
	if p.announcer == nil {
		return nil, fmt.Errorf("producer: announcer is required")
	}
	return p, nil
}

// Produce diffs root against the previously produced tree (if any),
// stores the resulting delta (and, per the snapshot interval, a full
// snapshot), announces the new revision, and returns its version
// number.
func (p *Producer) Produce(ctx context.Context, root *shadowtree.Node) (int64, error) {
	nextVersion := p.version + 1

	if p.current != nil {
		muts := differ.CalculateShadowViewMutations(p.current, root, p.reparenting)
		if err := p.storeDelta(ctx, p.version, nextVersion, muts); err != nil {
			return 0, err
		}

		reverse := differ.CalculateShadowViewMutations(root, p.current, p.reparenting)
		if err := p.storeReverse(ctx, nextVersion, reverse); err != nil {
			return 0, err
		}
	}

	if p.snapshotInterval <= 1 || nextVersion%int64(p.snapshotInterval) == 0 || p.current == nil {
		if err := p.storeSnapshot(ctx, nextVersion, root); err != nil {
			return 0, err
		}
	}

	if err := p.announcer.Announce(nextVersion); err != nil {
		return 0, fmt.Errorf("producer: announce version %d: %w", nextVersion, err)
	}

	p.current = root
	p.version = nextVersion
	p.logger.Info("produced revision", "version", nextVersion)
	return nextVersion, nil
}

func (p *Producer) storeDelta(ctx context.Context, from, to int64, muts mutation.List) error {
	data, err := wire.EncodeMutations(muts)
	if err != nil {
		return fmt.Errorf("producer: encode delta %d->%d: %w", from, to, err)
	}
	return p.store.Store(ctx, &blob.Blob{
		Type:        blob.Delta,
		FromVersion: from,
		ToVersion:   to,
		Data:        data,
		Metadata:    traceMetadata(),
	})
}

func (p *Producer) storeReverse(ctx context.Context, to int64, muts mutation.List) error {
	data, err := wire.EncodeMutations(muts)
	if err != nil {
		return fmt.Errorf("producer: encode reverse delta to %d: %w", to, err)
	}
	return p.store.Store(ctx, &blob.Blob{
		Type:      blob.Reverse,
		ToVersion: to,
		Data:      data,
		Metadata:  traceMetadata(),
	})
}

func (p *Producer) storeSnapshot(ctx context.Context, version int64, root *shadowtree.Node) error {
	data, err := wire.EncodeSnapshot(root)
	if err != nil {
		return fmt.Errorf("producer: encode snapshot %d: %w", version, err)
	}
	return p.store.Store(ctx, &blob.Blob{
		Type:     blob.Snapshot,
		Version:  version,
		Data:     data,
		Metadata: traceMetadata(),
	})
}

// traceMetadata stamps a blob with a unique trace ID so a consumer's
// logs can be correlated back to the producer call that wrote it.
func traceMetadata() map[string]string {
	return map[string]string{"trace_id": uuid.NewString()}
}
