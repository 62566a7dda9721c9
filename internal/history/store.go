package history

import (
	"context"
	"fmt"
	"log/slog"

	"autopost/internal/config"
)

// Store persists the history set. Implementations must make Append durable
// before returning.
type Store interface {
	Load(ctx context.Context) (*Set, error)
	Append(ctx context.Context, key string) error
	Remove(ctx context.Context, key string) (bool, error)
	Close() error
}

// Open returns the store selected by history.backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.History.Backend {
	case "sqlite":
		return OpenSQLite(cfg.History.Path)
	case "json", "":
		return NewFileStore(cfg.History.Path, logger), nil
	default:
		return nil, fmt.Errorf("history backend %q is not supported", cfg.History.Backend)
	}
}
