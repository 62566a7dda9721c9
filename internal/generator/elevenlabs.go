package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"autopost/internal/retry"
)

// ElevenLabsConfig captures the text-to-speech settings.
type ElevenLabsConfig struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// ElevenLabs implements Speaker against the ElevenLabs REST API.
type ElevenLabs struct {
	cfg        ElevenLabsConfig
	httpClient *http.Client
	invoker    *retry.Invoker
}

// NewElevenLabs validates cfg and returns a speaker.
func NewElevenLabs(cfg ElevenLabsConfig, httpClient *http.Client, invoker *retry.Invoker) (*ElevenLabs, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("elevenlabs api key missing; set speech.api_key or ELEVENLABS_API_KEY")
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		return nil, errors.New("elevenlabs voice id missing; set speech.voice")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_flash_v2_5"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if invoker == nil {
		invoker = retry.New()
	}
	return &ElevenLabs{cfg: cfg, httpClient: httpClient, invoker: invoker}, nil
}

type elevenLabsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Speak converts text to audio in the configured output format.
func (e *ElevenLabs) Speak(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(elevenLabsRequest{Text: text, ModelID: e.cfg.ModelID})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		strings.TrimRight(e.cfg.BaseURL, "/"), url.PathEscape(e.cfg.VoiceID), url.QueryEscape(e.cfg.OutputFormat))

	resp, err := e.invoker.Do(ctx, "elevenlabs text-to-speech", func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", e.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		return e.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	return data, nil
}
