package tier

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eduflow/transcache"
)

const localName = "local"

// snapshotEntry is the on-disk shape of a cached translation. The
// snapshot file is a single JSON object mapping cache key to entry.
type snapshotEntry struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Timestamp   int64  `json:"timestamp"`
	Source      string `json:"source"`
}

// LocalConfig configures the local tier.
type LocalConfig struct {
	Path   string        // snapshot file location (default: DefaultSnapshotPath())
	MaxAge time.Duration // entry TTL (default: transcache.DefaultMaxAge)
	Logger *zap.Logger   // structured logger (default: no-op)
}

// Local is the process-local tier: an in-memory map mirrored to a JSON
// snapshot file. It is the last-resort fallback and the only tier that
// enforces TTL itself. The snapshot is written wholesale with no file
// locking; concurrent processes sharing the data directory can
// overwrite each other (single-instance deployment constraint).
type Local struct {
	mu      sync.RWMutex
	entries map[string]transcache.Entry
	path    string
	maxAge  time.Duration
	logger  *zap.Logger
}

// NewLocal creates a local tier and loads any existing snapshot. A
// missing or unparsable snapshot file starts the tier empty rather than
// failing startup.
func NewLocal(cfg LocalConfig) *Local {
	path := cfg.Path
	if path == "" {
		path = DefaultSnapshotPath()
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = transcache.DefaultMaxAge
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Local{
		entries: make(map[string]transcache.Entry),
		path:    path,
		maxAge:  maxAge,
		logger:  logger,
	}
	l.loadSnapshot()

	return l
}

// Name implements transcache.TierStore.
func (l *Local) Name() string {
	return localName
}

// Get returns the cached translation for key. An entry older than the
// configured max age behaves as a miss and is removed as a side effect.
func (l *Local) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.RLock()
	entry, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok {
		return "", false, nil
	}

	if entry.Age(time.Now()) > l.maxAge {
		l.Remove(key)
		return "", false, nil
	}

	return entry.Translation, true, nil
}

// Set stores an entry, fully replacing any previous value for the key.
func (l *Local) Set(_ context.Context, key string, entry transcache.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = entry
	return nil
}

// Entries returns a copy of the in-memory map.
func (l *Local) Entries() map[string]transcache.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]transcache.Entry, len(l.entries))
	for key, entry := range l.entries {
		result[key] = entry
	}
	return result
}

// Len returns the number of in-memory entries, including expired ones.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Remove deletes a single entry.
func (l *Local) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// RemoveExpired deletes every entry older than the max age and returns
// how many were removed.
func (l *Local) RemoveExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range l.entries {
		if entry.Age(now) > l.maxAge {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the in-memory map. The snapshot file is untouched until
// the next SaveSnapshot.
func (l *Local) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]transcache.Entry)
}

// SaveSnapshot writes the whole in-memory map to the snapshot file,
// creating the directory lazily. A read-only filesystem is tolerated
// with a warning: the cache keeps working, it just won't survive a
// restart.
func (l *Local) SaveSnapshot() error {
	l.mu.RLock()
	snapshot := make(map[string]snapshotEntry, len(l.entries))
	for key, entry := range l.entries {
		snapshot[key] = snapshotEntry{
			Word:        entry.Word,
			Translation: entry.Translation,
			Timestamp:   entry.Timestamp,
			Source:      string(entry.Provider),
		}
	}
	l.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return &transcache.SnapshotError{Path: l.path, Op: "save", Cause: err}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		if isReadOnlyFS(err) {
			l.logger.Warn("snapshot directory on read-only filesystem, persistence disabled",
				zap.String("path", l.path))
			return nil
		}
		return &transcache.SnapshotError{Path: l.path, Op: "save", Cause: err}
	}

	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		if isReadOnlyFS(err) {
			l.logger.Warn("snapshot file on read-only filesystem, persistence disabled",
				zap.String("path", l.path))
			return nil
		}
		return &transcache.SnapshotError{Path: l.path, Op: "save", Cause: err}
	}

	return nil
}

// loadSnapshot populates the in-memory map from the snapshot file. Any
// failure leaves the tier empty.
func (l *Local) loadSnapshot() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("snapshot read failed, starting empty",
				zap.String("path", l.path), zap.Error(err))
		}
		return
	}

	var snapshot map[string]snapshotEntry
	if err := json.Unmarshal(data, &snapshot); err != nil {
		l.logger.Warn("snapshot file unparsable, starting empty",
			zap.String("path", l.path), zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, se := range snapshot {
		l.entries[key] = transcache.Entry{
			Word:        se.Word,
			Translation: se.Translation,
			Timestamp:   se.Timestamp,
			Provider:    transcache.Provider(se.Source),
		}
	}
}

// DefaultSnapshotPath returns where the snapshot lives: a project-local
// data directory when writable, otherwise the system temp directory
// (restricted/serverless hosting).
func DefaultSnapshotPath() string {
	dir := "data"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		dir = filepath.Join(os.TempDir(), "eduflow")
	}
	return filepath.Join(dir, "translations.json")
}

// isReadOnlyFS reports whether err is a read-only-filesystem error.
func isReadOnlyFS(err error) bool {
	return errors.Is(err, syscall.EROFS)
}
