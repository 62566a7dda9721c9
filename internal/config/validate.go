package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credentials are
// checked separately by ValidateCredentials so read-only commands work without them.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateWordPress(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateCredentials reports missing secrets required by a publishing run.
func (c *Config) ValidateCredentials() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if strings.TrimSpace(c.Generation.APIKey) == "" {
		return fmt.Errorf("generation.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'autopost config init')", defaultPath)
	}
	if strings.TrimSpace(c.Speech.APIKey) == "" {
		return fmt.Errorf("speech.api_key is required for provider %q", c.Speech.Provider)
	}
	if c.Speech.Provider == "elevenlabs" && strings.TrimSpace(c.Speech.Voice) == "" {
		return errors.New("speech.voice must be set when speech.provider is elevenlabs")
	}
	if c.WordPress.BaseURL == "" {
		return errors.New("wordpress.base_url must be set")
	}
	if c.WordPress.Username == "" || c.WordPress.ApplicationPassword == "" {
		return errors.New("wordpress.username and wordpress.application_password are required. Set WORDPRESS_USERNAME and WORDPRESS_APPLICATION_PASSWORD")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.MaxAttempts <= 0 {
		return errors.New("catalog.max_attempts must be positive")
	}
	for _, attr := range c.Catalog.Attributes {
		if strings.TrimSpace(attr) == "" {
			return errors.New("catalog.attributes must not contain empty values")
		}
	}
	return nil
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("history.backend: unsupported value %q (expected json or sqlite)", c.History.Backend)
	}
	return nil
}

func (c *Config) validateGeneration() error {
	switch c.Generation.BodyFormat {
	case "html", "markdown":
	default:
		return fmt.Errorf("generation.body_format: unsupported value %q (expected html or markdown)", c.Generation.BodyFormat)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return errors.New("generation.temperature must be between 0 and 2")
	}
	if c.Generation.BaseURL != "" {
		if err := validateURL("generation.base_url", c.Generation.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Provider {
	case "openai", "elevenlabs":
	default:
		return fmt.Errorf("speech.provider: unsupported value %q (expected openai or elevenlabs)", c.Speech.Provider)
	}
	return nil
}

func (c *Config) validateWordPress() error {
	if c.WordPress.BaseURL != "" {
		if err := validateURL("wordpress.base_url", c.WordPress.BaseURL); err != nil {
			return err
		}
	}
	switch c.WordPress.Status {
	case "publish", "draft", "pending", "private":
	default:
		return fmt.Errorf("wordpress.status: unsupported value %q", c.WordPress.Status)
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube.privacy_status: unsupported value %q", c.YouTube.PrivacyStatus)
	}
	return nil
}

func (c *Config) validateRetry() error {
	switch c.Retry.Strategy {
	case "constant", "exponential", "exponential_jitter":
	default:
		return fmt.Errorf("retry.strategy: unsupported value %q (expected constant, exponential, or exponential_jitter)", c.Retry.Strategy)
	}
	if c.Retry.MaxDelayMillis < c.Retry.DelayMillis {
		return errors.New("retry.max_delay_ms must not be smaller than retry.delay_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
