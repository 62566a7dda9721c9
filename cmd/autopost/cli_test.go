package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autopost/internal/config"
	"autopost/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	opts = append([]testsupport.ConfigOption{
		testsupport.WithSubjects("fox", "owl"),
		testsupport.WithAttributes("brave", "sleepy"),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "autopost.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigInitReportsWriteFailures(t *testing.T) {
	setupCLITestEnv(t)
	base := t.TempDir()

	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	_, err := runCLI(t, "", "config", "init", "--path", filepath.Join(blocker, "config.toml"))
	if err == nil || !strings.Contains(err.Error(), "create config directory") {
		t.Fatalf("expected config directory error, got %v", err)
	}

	dirTarget := filepath.Join(base, "taken")
	if err := os.Mkdir(dirTarget, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err = runCLI(t, "", "config", "init", "--path", dirTarget, "--overwrite")
	if err == nil || !strings.Contains(err.Error(), "create sample config") {
		t.Fatalf("expected wrapped sample config error, got %v", err)
	}
}

func TestHistoryAddListRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "History is empty")

	out, err = runCLI(t, env.configPath, "history", "add", "fox", "brave")
	if err != nil {
		t.Fatalf("history add: %v", err)
	}
	requireContains(t, out, "Marked Brave Fox as used")

	out, err = runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Brave Fox")

	if _, err := runCLI(t, env.configPath, "history", "remove", "fox", "brave"); err != nil {
		t.Fatalf("history remove: %v", err)
	}
	if _, err := runCLI(t, env.configPath, "history", "remove", "fox", "brave"); err == nil {
		t.Fatal("expected removing an unknown candidate to fail")
	}
}

func TestCatalogShowCountsRemaining(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedHistory(t, testsupport.MustOpenHistory(t, env.cfg), "fox|brave", "owl|sleepy")

	out, err := runCLI(t, env.configPath, "catalog", "show")
	if err != nil {
		t.Fatalf("catalog show: %v", err)
	}
	requireContains(t, out, "Attributes: brave, sleepy")
	requireContains(t, out, "Candidates: 4 total, 2 remaining")
}

func TestRunDryRunSelectsWithoutPublishing(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedHistory(t, testsupport.MustOpenHistory(t, env.cfg), "fox|brave", "fox|sleepy", "owl|brave")

	out, err := runCLI(t, env.configPath, "run", "--dry-run")
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, out, "Would publish: Sleepy Owl (owl|sleepy)")

	out, err = runCLI(t, env.configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.Contains(out, "Sleepy Owl") {
		t.Fatalf("dry run must not commit history, got %q", out)
	}
}

func TestRunDryRunExhausted(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedHistory(t, testsupport.MustOpenHistory(t, env.cfg), "fox|brave", "fox|sleepy", "owl|brave", "owl|sleepy")

	if _, err := runCLI(t, env.configPath, "run", "--dry-run"); err == nil {
		t.Fatal("expected exhausted catalog to fail")
	}
}

func TestRunRejectsNonPositiveCount(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env.configPath, "run", "--count", "0"); err == nil {
		t.Fatal("expected --count 0 to fail")
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithWordPress(srv.URL))
	out, err := runCLI(t, env.configPath, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "WordPress:")
	requireContains(t, out, "[OK]")
	if strings.Contains(out, "[FAIL]") {
		t.Fatalf("unexpected failure in %q", out)
	}
}

func TestDoctorFailsWhenWordPressDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithWordPress(srv.URL))
	out, err := runCLI(t, env.configPath, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[FAIL]")
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}

func TestTestNotifySends(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = srv.URL + "/autopost"
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := runCLI(t, env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if got != "/autopost" {
		t.Fatalf("unexpected ntfy path %q", got)
	}
}
