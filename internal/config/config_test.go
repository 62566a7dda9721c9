package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autopost/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY",
		"ELEVENLABS_API_KEY",
		"WORDPRESS_USERNAME",
		"WORDPRESS_APPLICATION_PASSWORD",
		"YOUTUBE_CLIENT_ID",
		"YOUTUBE_CLIENT_SECRET",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPathsAndUsesEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WORDPRESS_USERNAME", "editor")
	t.Setenv("WORDPRESS_APPLICATION_PASSWORD", "app-pass")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "autopost")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.History.Path != filepath.Join(wantState, "history.json") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if cfg.Catalog.Path != filepath.Join(wantState, "animals.json") {
		t.Fatalf("unexpected catalog path: %q", cfg.Catalog.Path)
	}
	if cfg.YouTube.TokenPath != filepath.Join(wantState, "youtube_token.json") {
		t.Fatalf("unexpected token path: %q", cfg.YouTube.TokenPath)
	}
	if cfg.Generation.APIKey != "sk-test" {
		t.Fatalf("expected generation key from env, got %q", cfg.Generation.APIKey)
	}
	if cfg.Speech.APIKey != "sk-test" {
		t.Fatalf("expected openai speech to reuse generation key, got %q", cfg.Speech.APIKey)
	}
	if cfg.Speech.Model != "tts-1" || cfg.Speech.Voice != "alloy" {
		t.Fatalf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Strategy != "constant" || cfg.Retry.DelayMillis != 2000 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if len(cfg.Catalog.Attributes) != len(config.DefaultAttributes) {
		t.Fatalf("expected default attributes, got %v", cfg.Catalog.Attributes)
	}
	if cfg.Video.Width != 1920 || cfg.Video.Height != 1080 {
		t.Fatalf("unexpected video size %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if err := cfg.ValidateCredentials(); err == nil {
		t.Fatal("expected missing wordpress.base_url to fail credential validation")
	}
	cfg.WordPress.BaseURL = "https://blog.example.com"
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("ValidateCredentials returned error: %v", err)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
state_dir = "~/state"

[catalog]
attributes = [" brave ", "brave", "", "sleepy"]
max_attempts = 7

[history]
backend = "SQLite"

[speech]
provider = "elevenlabs"
voice = "voice-1"
api_key = "el-key"

[wordpress]
base_url = "https://blog.example.com/"
categories = [4, 9]
status = "draft"

[retry]
strategy = "exponential_jitter"
attempts = 5
delay_ms = 100
max_delay_ms = 1000

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if got := strings.Join(cfg.Catalog.Attributes, ","); got != "brave,sleepy" {
		t.Fatalf("unexpected attributes: %q", got)
	}
	if cfg.Catalog.MaxAttempts != 7 {
		t.Fatalf("unexpected max attempts: %d", cfg.Catalog.MaxAttempts)
	}
	if cfg.History.Backend != "sqlite" || filepath.Base(cfg.History.Path) != "history.db" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Speech.Model != "eleven_flash_v2_5" || cfg.Speech.BaseURL != "https://api.elevenlabs.io" {
		t.Fatalf("unexpected elevenlabs defaults: %+v", cfg.Speech)
	}
	if cfg.WordPress.BaseURL != "https://blog.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.WordPress.BaseURL)
	}
	if len(cfg.WordPress.Categories) != 2 || cfg.WordPress.Categories[1] != 9 {
		t.Fatalf("unexpected categories: %v", cfg.WordPress.Categories)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"history backend": "[history]\nbackend = \"postgres\"\n",
		"retry strategy":  "[retry]\nstrategy = \"fibonacci\"\n",
		"retry bounds":    "[retry]\ndelay_ms = 5000\nmax_delay_ms = 10\n",
		"speech provider": "[speech]\nprovider = \"espeak\"\n",
		"wordpress url":   "[wordpress]\nbase_url = \"ftp://blog\"\n",
		"privacy":         "[youtube]\nprivacy_status = \"friends\"\n",
		"body format":     "[generation]\nbody_format = \"rtf\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if _, ok := decoded["wordpress"]; !ok {
		t.Fatal("expected wordpress section in sample")
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.ScratchDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if cfg.RunLockPath() != filepath.Join(cfg.Paths.StateDir, "autopost.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.RunLockPath())
	}
}
