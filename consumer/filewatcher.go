package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher provides directory-polling hot-reload for local
// development: it notices that files in a watched directory changed
// and triggers Consumer.Refresh, without itself reading the files'
// contents. The actual new revision still comes from the configured
// blob.BlobRetriever/blob.VersionCursor; a changed file on disk is
// only the local-dev signal that something changed upstream.
type FileWatcher struct {
	mu          sync.RWMutex
	watchedDirs map[string]*WatchedDirectory
	consumer    *Consumer
	logger      *slog.Logger
	config      *FileWatcherConfig
	stopChan    chan struct{}
	isRunning   bool
}

// WatchedDirectory tracks the files last seen under Path, so
// scanDirectory can tell which ones are new or modified.
type WatchedDirectory struct {
	Path         string
	LastModified time.Time
	Files        map[string]time.Time
}

// FileWatcherConfig configures a FileWatcher's polling behavior.
type FileWatcherConfig struct {
	PollInterval   time.Duration
	DebounceDelay  time.Duration
	FilePatterns   []string
	IgnorePatterns []string
	MaxFileSize    int64
	Recursive      bool
	EnableLogging  bool
}

// FileWatcherOpt configures a FileWatcher.
type FileWatcherOpt func(*FileWatcher)

// WithFileWatcherLogger sets the file watcher's logger.
func WithFileWatcherLogger(logger *slog.Logger) FileWatcherOpt {
	return func(fw *FileWatcher) { fw.logger = logger }
}

// WithFileWatcherConfig sets the file watcher's configuration.
func WithFileWatcherConfig(config *FileWatcherConfig) FileWatcherOpt {
	return func(fw *FileWatcher) { fw.config = config }
}

// NewFileWatcher creates a FileWatcher that calls consumer.Refresh on
// every detected change.
func NewFileWatcher(consumer *Consumer, opts ...FileWatcherOpt) *FileWatcher {
	fw := &FileWatcher{
		watchedDirs: make(map[string]*WatchedDirectory),
		consumer:    consumer,
		logger:      slog.Default(),
		config:      DefaultFileWatcherConfig(),
		stopChan:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(fw)
	}

	return fw
}

// DefaultFileWatcherConfig matches the snapshot/delta file extensions
// a producer's cmd-line tooling writes to a local directory.
func DefaultFileWatcherConfig() *FileWatcherConfig {
	return &FileWatcherConfig{
		PollInterval:   1 * time.Second,
		DebounceDelay:  500 * time.Millisecond,
		FilePatterns:   []string{"*.snapshot", "*.delta", "*.tree"},
		IgnorePatterns: []string{".git", ".DS_Store", "*.tmp", "*.swp"},
		MaxFileSize:    10 * 1024 * 1024,
		Recursive:      true,
		EnableLogging:  true,
	}
}

// WatchDirectory adds a directory to watch, scanning its current
// contents as the baseline.
func (fw *FileWatcher) WatchDirectory(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("consumer: resolve watch path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("consumer: directory does not exist: %s", absPath)
	}

	watched := &WatchedDirectory{
		Path:         absPath,
		LastModified: time.Now(),
		Files:        make(map[string]time.Time),
	}

	if err := fw.scanDirectory(watched); err != nil {
		return fmt.Errorf("consumer: scan directory: %w", err)
	}

	fw.watchedDirs[absPath] = watched
	if fw.config.EnableLogging {
		fw.logger.Info("watching directory", "path", absPath, "files", len(watched.Files))
	}
	return nil
}

// UnwatchDirectory removes a directory from watching.
func (fw *FileWatcher) UnwatchDirectory(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("consumer: resolve watch path: %w", err)
	}

	if _, exists := fw.watchedDirs[absPath]; !exists {
		return fmt.Errorf("consumer: directory not being watched: %s", absPath)
	}

	delete(fw.watchedDirs, absPath)
	if fw.config.EnableLogging {
		fw.logger.Info("stopped watching directory", "path", absPath)
	}
	return nil
}

// Start polls every watched directory at PollInterval until ctx is
// cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.isRunning {
		fw.mu.Unlock()
		return fmt.Errorf("consumer: file watcher is already running")
	}
	fw.isRunning = true
	fw.mu.Unlock()

	if fw.config.EnableLogging {
		fw.logger.Info("starting file watcher", "poll_interval", fw.config.PollInterval)
	}

	ticker := time.NewTicker(fw.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fw.mu.Lock()
			fw.isRunning = false
			fw.mu.Unlock()
			return ctx.Err()
		case <-fw.stopChan:
			fw.mu.Lock()
			fw.isRunning = false
			fw.mu.Unlock()
			return nil
		case <-ticker.C:
			fw.checkForChanges()
		}
	}
}

// Stop stops a running file watcher.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.isRunning {
		return
	}

	close(fw.stopChan)
	fw.stopChan = make(chan struct{})
	if fw.config.EnableLogging {
		fw.logger.Info("stopped file watcher")
	}
}

func (fw *FileWatcher) checkForChanges() {
	fw.mu.RLock()
	watchedDirs := make(map[string]*WatchedDirectory, len(fw.watchedDirs))
	for k, v := range fw.watchedDirs {
		watchedDirs[k] = v
	}
	fw.mu.RUnlock()

	for _, watched := range watchedDirs {
		if err := fw.scanDirectory(watched); err != nil {
			fw.logger.Error("failed to scan directory", "path", watched.Path, "error", err)
		}
	}
}

func (fw *FileWatcher) scanDirectory(watched *WatchedDirectory) error {
	changes := make([]string, 0)
	newFiles := make(map[string]time.Time)

	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.Size() > fw.config.MaxFileSize {
			return nil
		}
		if !fw.matchesPatterns(filepath.Base(path)) || fw.shouldIgnoreFile(path) {
			return nil
		}

		modTime := info.ModTime()
		newFiles[path] = modTime
		if lastModTime, exists := watched.Files[path]; !exists || modTime.After(lastModTime) {
			changes = append(changes, path)
		}
		return nil
	}

	var err error
	if fw.config.Recursive {
		err = filepath.Walk(watched.Path, walkFunc)
	} else {
		entries, readErr := os.ReadDir(watched.Path)
		if readErr != nil {
			return readErr
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, infoErr := entry.Info()
			if infoErr != nil {
				continue
			}
			_ = walkFunc(filepath.Join(watched.Path, entry.Name()), info, nil)
		}
	}
	if err != nil {
		return err
	}

	watched.Files = newFiles
	if len(changes) > 0 {
		fw.handleFileChanges(changes)
	}
	return nil
}

func (fw *FileWatcher) matchesPatterns(filename string) bool {
	for _, pattern := range fw.config.FilePatterns {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) shouldIgnoreFile(path string) bool {
	filename := filepath.Base(path)
	for _, pattern := range fw.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) handleFileChanges(changes []string) {
	if fw.config.EnableLogging {
		fw.logger.Info("detected file changes", "count", len(changes), "files", changes)
	}

	time.Sleep(fw.config.DebounceDelay)

	if err := fw.consumer.Refresh(); err != nil {
		fw.logger.Error("failed to refresh consumer after file changes", "error", err)
	} else if fw.config.EnableLogging {
		fw.logger.Info("consumer refreshed after file changes", "version", fw.consumer.Version())
	}
}

// GetWatchedDirectories returns the paths currently being watched.
func (fw *FileWatcher) GetWatchedDirectories() []string {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	dirs := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		dirs = append(dirs, path)
	}
	return dirs
}

// IsRunning reports whether the file watcher's poll loop is active.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.isRunning
}

// GetStats reports the file watcher's current configuration and state.
func (fw *FileWatcher) GetStats() map[string]any {
	fw.mu.RLock()
	defer fw.mu.RUnlock()

	totalFiles := 0
	for _, watched := range fw.watchedDirs {
		totalFiles += len(watched.Files)
	}

	return map[string]any{
		"is_running":      fw.isRunning,
		"watched_dirs":    len(fw.watchedDirs),
		"total_files":     totalFiles,
		"poll_interval":   fw.config.PollInterval,
		"debounce_delay":  fw.config.DebounceDelay,
		"file_patterns":   fw.config.FilePatterns,
		"ignore_patterns": fw.config.IgnorePatterns,
		"max_file_size":   fw.config.MaxFileSize,
		"recursive":       fw.config.Recursive,
	}
}

// HotReloadConsumer pairs a Consumer with a FileWatcher that refreshes
// it whenever a watched directory changes.
type HotReloadConsumer struct {
	*Consumer
	fileWatcher *FileWatcher
}

// NewHotReloadConsumer creates a Consumer and a FileWatcher watching
// watchDirs, refreshing the consumer on every detected change.
func NewHotReloadConsumer(watchDirs []string, opts ...Option) (*HotReloadConsumer, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}

	fw := NewFileWatcher(c)
	for _, dir := range watchDirs {
		if err := fw.WatchDirectory(dir); err != nil {
			return nil, fmt.Errorf("consumer: watch directory %s: %w", dir, err)
		}
	}

	return &HotReloadConsumer{Consumer: c, fileWatcher: fw}, nil
}

// StartHotReload starts the underlying FileWatcher's poll loop.
func (hrc *HotReloadConsumer) StartHotReload(ctx context.Context) error {
	return hrc.fileWatcher.Start(ctx)
}

// StopHotReload stops the underlying FileWatcher.
func (hrc *HotReloadConsumer) StopHotReload() {
	hrc.fileWatcher.Stop()
}

// GetHotReloadStats reports the underlying FileWatcher's stats.
func (hrc *HotReloadConsumer) GetHotReloadStats() map[string]any {
	return hrc.fileWatcher.GetStats()
}

// AddWatchDirectory adds a directory to the hot-reload watch list.
func (hrc *HotReloadConsumer) AddWatchDirectory(path string) error {
	return hrc.fileWatcher.WatchDirectory(path)
}

// RemoveWatchDirectory removes a directory from the hot-reload watch list.
func (hrc *HotReloadConsumer) RemoveWatchDirectory(path string) error {
	return hrc.fileWatcher.UnwatchDirectory(path)
}
