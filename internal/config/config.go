package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and state file locations.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	ScratchDir string `toml:"scratch_dir"`
	LogDir     string `toml:"log_dir"`
}

// Catalog describes where subjects come from and how they are paired with attributes.
type Catalog struct {
	Path        string   `toml:"path"`
	Attributes  []string `toml:"attributes"`
	MaxAttempts int      `toml:"max_attempts"`
}

// History selects the persisted history backend.
type History struct {
	Backend string `toml:"backend"` // "json" or "sqlite"
	Path    string `toml:"path"`
}

// Generation contains OpenAI-compatible settings for text and image generation.
type Generation struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	TextModel   string  `toml:"text_model"`
	ImageModel  string  `toml:"image_model"`
	ImageSize   string  `toml:"image_size"`
	Language    string  `toml:"language"`
	BodyFormat  string  `toml:"body_format"` // "html" or "markdown"
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// Speech contains text-to-speech settings.
type Speech struct {
	Provider     string `toml:"provider"` // "openai" or "elevenlabs"
	Model        string `toml:"model"`
	Voice        string `toml:"voice"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	OutputFormat string `toml:"output_format"`
}

// WordPress contains CMS credentials and post defaults.
type WordPress struct {
	BaseURL             string  `toml:"base_url"`
	Username            string  `toml:"username"`
	ApplicationPassword string  `toml:"application_password"`
	Categories          []int64 `toml:"categories"`
	Status              string  `toml:"status"`
}

// Video controls the optional render and upload stage.
type Video struct {
	Enabled       bool   `toml:"enabled"`
	Upload        bool   `toml:"upload"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	RenderTimeout int    `toml:"render_timeout"`
}

// YouTube contains upload defaults and OAuth client settings.
type YouTube struct {
	ClientID      string   `toml:"client_id"`
	ClientSecret  string   `toml:"client_secret"`
	TokenPath     string   `toml:"token_path"`
	CategoryID    string   `toml:"category_id"`
	PrivacyStatus string   `toml:"privacy_status"`
	Tags          []string `toml:"tags"`
}

// Retry configures the outbound HTTP retry policy.
type Retry struct {
	Attempts       int    `toml:"attempts"`
	Strategy       string `toml:"strategy"` // "constant", "exponential", "exponential_jitter"
	DelayMillis    int    `toml:"delay_ms"`
	MaxDelayMillis int    `toml:"max_delay_ms"`
}

// HTTP configures the shared HTTP client.
type HTTP struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Scratch controls stale artifact sweeping.
type Scratch struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	Degraded       bool   `toml:"degraded"`
	Errors         bool   `toml:"errors"`
}

// Metrics controls the Prometheus textfile output.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autopost.
//
// Configuration sections by subsystem:
//   - Paths: state, scratch, and log directories
//   - Catalog: subject catalog file, attribute enumeration, selection attempts
//   - History: persisted history backend
//   - Generation / Speech: content generation services
//   - WordPress: CMS credentials and post defaults
//   - Video / YouTube: optional render and upload stage
//   - Retry / HTTP: outbound call policy
//   - Scratch: stale artifact sweeping
//   - Notifications / Metrics / Logging: operational output
type Config struct {
	Paths         Paths         `toml:"paths"`
	Catalog       Catalog       `toml:"catalog"`
	History       History       `toml:"history"`
	Generation    Generation    `toml:"generation"`
	Speech        Speech        `toml:"speech"`
	WordPress     WordPress     `toml:"wordpress"`
	Video         Video         `toml:"video"`
	YouTube       YouTube       `toml:"youtube"`
	Retry         Retry         `toml:"retry"`
	HTTP          HTTP          `toml:"http"`
	Scratch       Scratch       `toml:"scratch"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autopost.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, scratch, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.ScratchDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunLockPath is the lock file guarding against concurrent pipeline runs.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.StateDir, "autopost.lock")
}

// LogFilePath is where file logging is appended.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "autopost.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
