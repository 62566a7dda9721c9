package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autopost/internal/config"
	"autopost/internal/history"
)

func TestFileStoreMissingFileLoadsEmpty(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	set, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %v", set.Keys())
	}
}

func TestFileStoreAppendPersistsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.json")
	store := history.NewFileStore(path, nil)
	ctx := context.Background()

	for _, key := range []string{"fox|curious", "owl|curious", "fox|curious"} {
		if err := store.Append(ctx, key); err != nil {
			t.Fatalf("Append(%q) returned error: %v", key, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("history is not a JSON list: %v", err)
	}
	if strings.Join(keys, ",") != "fox|curious,owl|curious" {
		t.Fatalf("unexpected persisted keys %v", keys)
	}

	reloaded, err := history.NewFileStore(path, nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reloaded.Contains("owl|curious") || reloaded.Len() != 2 {
		t.Fatalf("unexpected reloaded set %v", reloaded.Keys())
	}
}

func TestFileStoreCorruptFileLoadsEmptyAndAppendQuarantines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt history: %v", err)
	}
	store := history.NewFileStore(path, nil)
	ctx := context.Background()

	set, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set for corrupt file, got %v", set.Keys())
	}

	if err := store.Append(ctx, "owl|curious"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	matches, err := filepath.Glob(path + ".corrupt-*")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one quarantined backup, got %v (%v)", matches, err)
	}
	backup, err := os.ReadFile(matches[0])
	if err != nil || string(backup) != "{not json" {
		t.Fatalf("expected original bytes preserved, got %q (%v)", backup, err)
	}
	set, err = store.Load(ctx)
	if err != nil || !set.Contains("owl|curious") {
		t.Fatalf("expected appended key after quarantine, got %v (%v)", set.Keys(), err)
	}
}

func TestFileStoreRemove(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "history.json"), nil)
	ctx := context.Background()
	if err := store.Append(ctx, "fox|brave"); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	removed, err := store.Remove(ctx, "fox|brave")
	if err != nil || !removed {
		t.Fatalf("expected key removed, got %v (%v)", removed, err)
	}
	removed, err = store.Remove(ctx, "fox|brave")
	if err != nil || removed {
		t.Fatalf("expected second remove to report absent, got %v (%v)", removed, err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"owl|sleepy", "fox|brave", "owl|sleepy"} {
		if err := store.Append(ctx, key); err != nil {
			t.Fatalf("Append(%q) returned error: %v", key, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := history.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	set, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if strings.Join(set.Keys(), ",") != "owl|sleepy,fox|brave" {
		t.Fatalf("unexpected keys %v", set.Keys())
	}
	removed, err := reopened.Remove(ctx, "owl|sleepy")
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v (%v)", removed, err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.History.Backend = "sqlite"
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*history.SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", store)
	}

	cfg.History.Backend = "json"
	cfg.History.Path = filepath.Join(t.TempDir(), "history.json")
	store, err = history.Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, ok := store.(*history.FileStore); !ok {
		t.Fatalf("expected FileStore, got %T", store)
	}
}

func TestRunLockRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autopost.lock")
	first, err := history.AcquireRunLock(path)
	if err != nil {
		t.Fatalf("first AcquireRunLock returned error: %v", err)
	}

	if _, err := history.AcquireRunLock(path); !errors.Is(err, history.ErrHistoryLocked) {
		t.Fatalf("expected ErrHistoryLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	second, err := history.AcquireRunLock(path)
	if err != nil {
		t.Fatalf("expected lock to be reacquirable, got %v", err)
	}
	_ = second.Release()
}

func TestSetSemantics(t *testing.T) {
	set := history.NewSet("a|b", "c|d", "a|b")
	if set.Len() != 2 {
		t.Fatalf("expected duplicates dropped, got %v", set.Keys())
	}
	if set.Add("a|b") {
		t.Fatal("expected Add of existing key to report no change")
	}
	if !set.Add("e|f") || set.Keys()[2] != "e|f" {
		t.Fatalf("expected append at end, got %v", set.Keys())
	}
}
