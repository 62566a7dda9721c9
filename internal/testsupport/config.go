package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"autopost/internal/config"
	"autopost/internal/fileutil"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are filled with placeholders so credential validation passes,
// and video is disabled unless an option enables it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.Path = filepath.Join(cfgVal.Paths.StateDir, "animals.json")
	cfgVal.History.Path = filepath.Join(cfgVal.Paths.StateDir, "history.json")
	cfgVal.YouTube.TokenPath = filepath.Join(cfgVal.Paths.StateDir, "youtube_token.json")
	cfgVal.Generation.APIKey = "test"
	cfgVal.Speech.APIKey = "test"
	cfgVal.WordPress.BaseURL = "http://127.0.0.1:9"
	cfgVal.WordPress.Username = "editor"
	cfgVal.WordPress.ApplicationPassword = "secret"
	cfgVal.Video.Enabled = false
	cfgVal.Retry.DelayMillis = 0
	cfgVal.Retry.MaxDelayMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSubjects writes the catalog file with the given subjects.
func WithSubjects(subjects ...string) ConfigOption {
	return func(b *configBuilder) {
		if err := fileutil.WriteJSONAtomic(b.cfg.Catalog.Path, subjects, 0o644); err != nil {
			b.t.Fatalf("write catalog: %v", err)
		}
	}
}

// WithAttributes replaces the attribute enumeration.
func WithAttributes(attributes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Attributes = attributes
	}
}

// WithWordPress points the CMS client at baseURL.
func WithWordPress(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WordPress.BaseURL = baseURL
	}
}

// WithVideo toggles the render and upload stages.
func WithVideo(enabled, upload bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.Enabled = enabled
		b.cfg.Video.Upload = upload
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg"}
		}
		for _, name := range names {
			StubBinary(b.t, b.baseDir, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// StubBinary writes an executable script into dir/bin and prepends that
// directory to PATH for the duration of the test. It returns the script path.
func StubBinary(t testing.TB, dir, name, script string) string {
	t.Helper()

	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
	return target
}

// FakeFFmpegScript writes "video" into the final argument, which ffmpeg
// treats as the output file.
const FakeFFmpegScript = "#!/bin/sh\nfor arg; do out=$arg; done\nprintf video > \"$out\"\n"

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
