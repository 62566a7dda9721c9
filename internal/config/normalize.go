package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeGeneration()
	c.normalizeSpeech()
	c.normalizeWordPress()
	c.normalizeVideo()
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizeRetry()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = filepath.Join(c.Paths.StateDir, "scratch")
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = filepath.Join(c.Paths.StateDir, defaultCatalogFile)
	}
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}

	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	if c.History.Backend == "" {
		c.History.Backend = defaultHistoryBackend
	}
	if strings.TrimSpace(c.History.Path) == "" {
		name := defaultHistoryFile
		if c.History.Backend == "sqlite" {
			name = defaultHistoryDBFile
		}
		c.History.Path = filepath.Join(c.Paths.StateDir, name)
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	attrs := make([]string, 0, len(c.Catalog.Attributes))
	seen := make(map[string]struct{}, len(c.Catalog.Attributes))
	for _, attr := range c.Catalog.Attributes {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		if _, dup := seen[attr]; dup {
			continue
		}
		seen[attr] = struct{}{}
		attrs = append(attrs, attr)
	}
	if len(attrs) == 0 {
		attrs = append(attrs, DefaultAttributes...)
	}
	c.Catalog.Attributes = attrs
	if c.Catalog.MaxAttempts <= 0 {
		c.Catalog.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizeGeneration() {
	if c.Generation.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Generation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Generation.BaseURL = strings.TrimSpace(c.Generation.BaseURL)
	if strings.TrimSpace(c.Generation.TextModel) == "" {
		c.Generation.TextModel = defaultTextModel
	}
	if strings.TrimSpace(c.Generation.ImageModel) == "" {
		c.Generation.ImageModel = defaultImageModel
	}
	if strings.TrimSpace(c.Generation.ImageSize) == "" {
		c.Generation.ImageSize = defaultImageSize
	}
	if strings.TrimSpace(c.Generation.Language) == "" {
		c.Generation.Language = defaultGenerationLanguage
	}
	c.Generation.BodyFormat = strings.ToLower(strings.TrimSpace(c.Generation.BodyFormat))
	if c.Generation.BodyFormat == "" {
		c.Generation.BodyFormat = defaultBodyFormat
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = defaultMaxTokens
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Provider = strings.ToLower(strings.TrimSpace(c.Speech.Provider))
	if c.Speech.Provider == "" {
		c.Speech.Provider = defaultSpeechProvider
	}
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	switch c.Speech.Provider {
	case "elevenlabs":
		if c.Speech.APIKey == "" {
			if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
				c.Speech.APIKey = strings.TrimSpace(value)
			}
		}
		if strings.TrimSpace(c.Speech.Model) == "" {
			c.Speech.Model = defaultElevenLabsModel
		}
		if c.Speech.BaseURL == "" {
			c.Speech.BaseURL = defaultElevenLabsBaseURL
		}
		if strings.TrimSpace(c.Speech.OutputFormat) == "" {
			c.Speech.OutputFormat = defaultElevenLabsFormat
		}
	default:
		if c.Speech.APIKey == "" {
			c.Speech.APIKey = c.Generation.APIKey
		}
		if c.Speech.BaseURL == "" {
			c.Speech.BaseURL = c.Generation.BaseURL
		}
		if strings.TrimSpace(c.Speech.Model) == "" {
			c.Speech.Model = defaultOpenAISpeechModel
		}
		if strings.TrimSpace(c.Speech.Voice) == "" {
			c.Speech.Voice = defaultOpenAISpeechVoice
		}
	}
}

func (c *Config) normalizeWordPress() {
	if c.WordPress.Username == "" {
		if value, ok := os.LookupEnv("WORDPRESS_USERNAME"); ok {
			c.WordPress.Username = strings.TrimSpace(value)
		}
	}
	if c.WordPress.ApplicationPassword == "" {
		if value, ok := os.LookupEnv("WORDPRESS_APPLICATION_PASSWORD"); ok {
			c.WordPress.ApplicationPassword = strings.TrimSpace(value)
		}
	}
	c.WordPress.BaseURL = strings.TrimRight(strings.TrimSpace(c.WordPress.BaseURL), "/")
	c.WordPress.Status = strings.ToLower(strings.TrimSpace(c.WordPress.Status))
	if c.WordPress.Status == "" {
		c.WordPress.Status = defaultPostStatus
	}
}

func (c *Config) normalizeVideo() {
	if strings.TrimSpace(c.Video.FFmpegBinary) == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Video.Width <= 0 {
		c.Video.Width = defaultVideoWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultVideoHeight
	}
	if c.Video.RenderTimeout <= 0 {
		c.Video.RenderTimeout = defaultRenderTimeout
	}
}

func (c *Config) normalizeYouTube() error {
	if c.YouTube.ClientID == "" {
		if value, ok := os.LookupEnv("YOUTUBE_CLIENT_ID"); ok {
			c.YouTube.ClientID = strings.TrimSpace(value)
		}
	}
	if c.YouTube.ClientSecret == "" {
		if value, ok := os.LookupEnv("YOUTUBE_CLIENT_SECRET"); ok {
			c.YouTube.ClientSecret = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.YouTube.TokenPath) == "" {
		c.YouTube.TokenPath = filepath.Join(c.Paths.StateDir, defaultYouTubeTokenFile)
	}
	var err error
	if c.YouTube.TokenPath, err = expandPath(c.YouTube.TokenPath); err != nil {
		return fmt.Errorf("youtube.token_path: %w", err)
	}
	if strings.TrimSpace(c.YouTube.CategoryID) == "" {
		c.YouTube.CategoryID = defaultYouTubeCategoryID
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultYouTubePrivacy
	}
	return nil
}

func (c *Config) normalizeRetry() {
	c.Retry.Strategy = strings.ToLower(strings.TrimSpace(c.Retry.Strategy))
	if c.Retry.Strategy == "" {
		c.Retry.Strategy = defaultRetryStrategy
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = defaultRetryAttempts
	}
	if c.Retry.DelayMillis < 0 {
		c.Retry.DelayMillis = 0
	}
	if c.Retry.MaxDelayMillis <= 0 {
		c.Retry.MaxDelayMillis = defaultRetryMaxDelayMillis
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = defaultHTTPTimeoutSeconds
	}
	if c.Scratch.MaxAgeHours < 0 {
		c.Scratch.MaxAgeHours = 0
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
