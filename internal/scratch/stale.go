package scratch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autopost/internal/logging"
)

// CleanStale removes artifact files older than maxAge from every kind
// directory under root. A non-positive maxAge disables the sweep.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) Result {
	var result Result

	root = strings.TrimSpace(root)
	if root == "" || maxAge <= 0 {
		return result
	}
	cutoff := time.Now().Add(-maxAge)

	for _, kind := range Kinds {
		dir := filepath.Join(root, string(kind))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				if logger != nil {
					logger.Warn("failed to remove stale artifact",
						logging.String("path", path),
						logging.Error(err),
						logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
						logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
						logging.String(logging.FieldImpact, "disk space not reclaimed"),
					)
				}
				continue
			}
			result.Removed = append(result.Removed, path)
			if logger != nil {
				logger.Info("removed stale artifact",
					logging.String("path", path),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "scratch_cleanup"),
				)
			}
		}
	}
	return result
}
