package scratch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"autopost/internal/logging"
)

// Kind names an artifact subdirectory.
type Kind string

const (
	KindImage Kind = "images"
	KindAudio Kind = "audio"
	KindVideo Kind = "videos"
)

// Kinds lists every artifact subdirectory in cleanup order.
var Kinds = []Kind{KindImage, KindAudio, KindVideo}

// Result reports what a cleanup pass removed and what it could not.
type Result struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// Manager allocates and removes the artifacts of a single run.
type Manager struct {
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	tracked []string
}

// New returns a manager rooted at dir.
func New(dir string, logger *slog.Logger) *Manager {
	return &Manager{
		root:   strings.TrimSpace(dir),
		logger: logging.NewComponentLogger(logger, "scratch"),
	}
}

// Root returns the scratch directory.
func (m *Manager) Root() string {
	return m.root
}

// Path reserves a fresh file path for kind with the given extension and
// tracks it for cleanup. The file itself is not created.
func (m *Manager) Path(kind Kind, ext string) (string, error) {
	if m.root == "" {
		return "", errors.New("scratch directory not configured")
	}
	dir := filepath.Join(m.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	m.Track(path)
	return path, nil
}

// Write stores data in a freshly reserved path and returns it.
func (m *Manager) Write(kind Kind, ext string, data []byte) (string, error) {
	path, err := m.Path(kind, ext)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s artifact: %w", kind, err)
	}
	return path, nil
}

// Track registers an externally created path for cleanup.
func (m *Manager) Track(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tracked {
		if existing == path {
			return
		}
	}
	m.tracked = append(m.tracked, path)
}

// Tracked returns a copy of the tracked paths.
func (m *Manager) Tracked() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tracked...)
}

// Cleanup removes every tracked file, then each kind directory that is empty.
// It is safe to call more than once.
func (m *Manager) Cleanup(ctx context.Context) Result {
	m.mu.Lock()
	paths := m.tracked
	m.tracked = nil
	m.mu.Unlock()

	var result Result
	for _, path := range paths {
		removed, err := m.RemoveFile(ctx, path)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if removed {
			result.Removed = append(result.Removed, path)
		}
	}
	if m.root == "" {
		return result
	}
	for _, kind := range Kinds {
		dir := filepath.Join(m.root, string(kind))
		removed, err := m.RemoveEmptyDir(ctx, dir)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			continue
		}
		if removed {
			result.Removed = append(result.Removed, dir)
		}
	}
	return result
}

// RemoveFile deletes path. A missing file logs a warning and reports false
// without an error.
func (m *Manager) RemoveFile(ctx context.Context, path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		logging.WithContext(ctx, m.logger).Debug("removed artifact", logging.String("path", path))
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "artifact already removed", "scratch_artifact_missing",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "nothing to clean up"))
		return false, nil
	default:
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to remove artifact", "scratch_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"))
		return false, err
	}
}

// RemoveEmptyDir deletes dir only when it has no entries. Missing or
// non-empty directories report false without error.
func (m *Manager) RemoveEmptyDir(ctx context.Context, dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to inspect scratch directory", "scratch_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err))
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "failed to remove scratch directory", "scratch_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check scratch_dir permissions"))
		return false, err
	}
	return true, nil
}
