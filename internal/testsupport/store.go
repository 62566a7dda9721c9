package testsupport

import (
	"context"
	"testing"

	"autopost/internal/config"
	"autopost/internal/history"
	"autopost/internal/logging"
)

// MustOpenHistory opens the configured history store for tests and registers
// cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) history.Store {
	t.Helper()

	store, err := history.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedHistory appends keys to the store.
func SeedHistory(t testing.TB, store history.Store, keys ...string) {
	t.Helper()

	for _, key := range keys {
		if err := store.Append(context.Background(), key); err != nil {
			t.Fatalf("seed history %q: %v", key, err)
		}
	}
}
