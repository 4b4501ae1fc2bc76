package consumer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/shadowdiff/blob"
	"github.com/leowmjw/shadowdiff/producer"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

func newTestConsumer(t *testing.T) *Consumer {
	store := blob.NewInMemoryBlobStore()
	feed := blob.NewInMemoryFeed()

	p, err := producer.New(producer.WithBlobStore(store), producer.WithAnnouncer(feed))
	require.NoError(t, err)
	_, err = p.Produce(context.Background(), node(1, shadowtree.RootComponentName))
	require.NoError(t, err)

	c, err := New(WithBlobRetriever(store), WithVersionCursor(feed))
	require.NoError(t, err)
	return c
}

func TestFileWatcherWatchDirectory(t *testing.T) {
	tempDir := t.TempDir()
	fw := NewFileWatcher(newTestConsumer(t))

	require.NoError(t, fw.WatchDirectory(tempDir))
	assert.Len(t, fw.GetWatchedDirectories(), 1)

	require.NoError(t, fw.UnwatchDirectory(tempDir))
	assert.Len(t, fw.GetWatchedDirectories(), 0)
}

func TestFileWatcherNonExistentDirectory(t *testing.T) {
	fw := NewFileWatcher(newTestConsumer(t))
	assert.Error(t, fw.WatchDirectory("/non/existent/path"))
}

func TestFileWatcherDefaultConfig(t *testing.T) {
	config := DefaultFileWatcherConfig()
	assert.Positive(t, config.PollInterval)
	assert.Positive(t, config.DebounceDelay)
	assert.NotEmpty(t, config.FilePatterns)
	assert.Positive(t, config.MaxFileSize)
}

func TestFileWatcherMatchesPatterns(t *testing.T) {
	fw := NewFileWatcher(nil)
	assert.True(t, fw.matchesPatterns("revision.snapshot"))
	assert.True(t, fw.matchesPatterns("revision.delta"))
	assert.False(t, fw.matchesPatterns("readme.txt"))
}

func TestFileWatcherShouldIgnoreFile(t *testing.T) {
	fw := NewFileWatcher(nil)
	assert.True(t, fw.shouldIgnoreFile("/path/to/.DS_Store"))
	assert.True(t, fw.shouldIgnoreFile("/path/to/file.tmp"))
	assert.False(t, fw.shouldIgnoreFile("/path/to/revision.snapshot"))
}

func TestFileWatcherStats(t *testing.T) {
	tempDir := t.TempDir()
	fw := NewFileWatcher(newTestConsumer(t))

	require.NoError(t, fw.WatchDirectory(tempDir))

	stats := fw.GetStats()
	assert.Equal(t, false, stats["is_running"])
	assert.Equal(t, 1, stats["watched_dirs"])
	assert.NotNil(t, stats["poll_interval"])
}

func TestFileWatcherStartStop(t *testing.T) {
	tempDir := t.TempDir()

	config := DefaultFileWatcherConfig()
	config.PollInterval = 20 * time.Millisecond

	fw := NewFileWatcher(newTestConsumer(t), WithFileWatcherConfig(config))
	require.NoError(t, fw.WatchDirectory(tempDir))
	assert.False(t, fw.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() { _ = fw.Start(ctx) }()

	require.Eventually(t, fw.IsRunning, time.Second, 5*time.Millisecond)

	fw.Stop()
	require.Eventually(t, func() bool { return !fw.IsRunning() }, time.Second, 5*time.Millisecond)
}

func TestFileWatcherRefreshesConsumerOnChange(t *testing.T) {
	tempDir := t.TempDir()

	config := DefaultFileWatcherConfig()
	config.PollInterval = 20 * time.Millisecond
	config.DebounceDelay = 5 * time.Millisecond

	store := blob.NewInMemoryBlobStore()
	feed := blob.NewInMemoryFeed()
	p, err := producer.New(producer.WithBlobStore(store), producer.WithAnnouncer(feed))
	require.NoError(t, err)
	_, err = p.Produce(context.Background(), node(1, shadowtree.RootComponentName))
	require.NoError(t, err)

	c, err := New(WithBlobRetriever(store), WithVersionCursor(feed))
	require.NoError(t, err)
	require.NoError(t, c.Sync(context.Background()))
	startVersion := c.Version()

	fw := NewFileWatcher(c, WithFileWatcherConfig(config))
	require.NoError(t, fw.WatchDirectory(tempDir))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	go func() { _ = fw.Start(ctx) }()

	root2 := node(1, shadowtree.RootComponentName)
	root2.Children = []*shadowtree.Node{{Tag: 2, Family: 2, ComponentName: "A", Traits: shadowtree.FormsView}}
	_, err = p.Produce(context.Background(), root2)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "revision.snapshot"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return c.Version() > startVersion }, time.Second, 5*time.Millisecond)
	fw.Stop()
}

func TestHotReloadConsumerCreation(t *testing.T) {
	tempDir := t.TempDir()

	hrc, err := NewHotReloadConsumer([]string{tempDir}, WithBlobRetriever(blob.NewInMemoryBlobStore()), WithVersionCursor(blob.NewInMemoryFeed()))
	require.NoError(t, err)
	require.NotNil(t, hrc)

	stats := hrc.GetHotReloadStats()
	assert.Equal(t, 1, stats["watched_dirs"])
}

func TestHotReloadConsumerAddRemoveDirectory(t *testing.T) {
	tempDir1 := t.TempDir()
	tempDir2 := t.TempDir()

	hrc, err := NewHotReloadConsumer([]string{tempDir1}, WithBlobRetriever(blob.NewInMemoryBlobStore()), WithVersionCursor(blob.NewInMemoryFeed()))
	require.NoError(t, err)

	require.NoError(t, hrc.AddWatchDirectory(tempDir2))
	assert.Equal(t, 2, hrc.GetHotReloadStats()["watched_dirs"])

	require.NoError(t, hrc.RemoveWatchDirectory(tempDir2))
	assert.Equal(t, 1, hrc.GetHotReloadStats()["watched_dirs"])
}

func TestRefreshSyncsToLatestVersion(t *testing.T) {
	c := newTestConsumer(t)
	require.NoError(t, c.Refresh())
	assert.Equal(t, int64(1), c.Version())
}
