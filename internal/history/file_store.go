package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"autopost/internal/fileutil"
	"autopost/internal/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps history as a JSON array of keys. Writers serialize on an
// exclusive flock held for the whole read-modify-write.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewFileStore creates a store for path. The file is created lazily on first Append.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "history"),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the history set. A missing file yields an empty set. A malformed
// file is logged and also yields an empty set.
func (s *FileStore) Load(ctx context.Context) (*Set, error) {
	set, err := s.read()
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "history file unreadable; starting empty", "history_load_failed",
			logging.Error(err),
			logging.String("path", s.path),
			logging.String(logging.FieldErrorHint, "inspect or delete the history file"),
			logging.String(logging.FieldImpact, "previously used candidates may be selected again"))
		return NewSet(), nil
	}
	return set, nil
}

// Append adds key and persists the whole set. Appending an existing key is a no-op.
func (s *FileStore) Append(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("history key cannot be empty")
	}
	return s.update(ctx, func(set *Set) bool { return set.Add(key) })
}

// Remove deletes key if present and reports whether it was found.
func (s *FileStore) Remove(ctx context.Context, key string) (bool, error) {
	var removed bool
	err := s.update(ctx, func(set *Set) bool {
		removed = set.Remove(key)
		return removed
	})
	return removed, err
}

// Close releases nothing; FileStore holds no open handles between calls.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) update(ctx context.Context, mutate func(*Set) bool) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	if !locked {
		return ErrHistoryLocked
	}
	defer func() { _ = s.lock.Unlock() }()

	set, err := s.read()
	if err != nil {
		set, err = s.quarantine(ctx, err)
		if err != nil {
			return err
		}
	}
	if !mutate(set) {
		return nil
	}
	if err := fileutil.WriteJSONAtomic(s.path, set.Keys(), 0o644); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	logging.WithContext(ctx, s.logger).Debug("history persisted",
		logging.Int("entry_count", set.Len()),
		logging.String("path", s.path))
	return nil
}

// quarantine moves an unparseable history file aside so the next write starts
// from an empty set without destroying the original bytes.
func (s *FileStore) quarantine(ctx context.Context, cause error) (*Set, error) {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, backup); err != nil {
		return nil, fmt.Errorf("quarantine unreadable history (%v): %w", cause, err)
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "unreadable history file moved aside", "history_quarantined",
		logging.Error(cause),
		logging.String("backup", backup),
		logging.String(logging.FieldErrorHint, "merge keys from the backup file manually if needed"),
		logging.String(logging.FieldImpact, "history restarts from the current entry"))
	return NewSet(), nil
}

func (s *FileStore) read() (*Set, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewSet(), nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}
	return NewSet(keys...), nil
}
