package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"autopost/internal/catalog"
	"autopost/internal/cms"
	"autopost/internal/config"
	"autopost/internal/generator"
	"autopost/internal/history"
	"autopost/internal/metrics"
	"autopost/internal/notifications"
	"autopost/internal/pipeline"
	"autopost/internal/retry"
	"autopost/internal/scratch"
	"autopost/internal/video"
)

// runner owns the clients built for one CLI invocation.
type runner struct {
	orchestrator *pipeline.Orchestrator
	history      history.Store
	metrics      *metrics.Recorder
}

func (r *runner) Close() error {
	if r == nil || r.history == nil {
		return nil
	}
	return r.history.Close()
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second}
}

// buildRunner constructs every collaborator once and injects them into the
// orchestrator.
func buildRunner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runner, error) {
	httpClient := newHTTPClient(cfg)

	invoker, err := retry.NewFromConfig(cfg.Retry, logger)
	if err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}

	subjects, err := catalog.LoadSubjects(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	selector := catalog.NewSelector(subjects, cfg.Catalog.Attributes, catalog.WithLogger(logger))

	gen, err := buildGenerator(cfg, httpClient, invoker, logger)
	if err != nil {
		return nil, err
	}

	wp, err := cms.NewWordPress(cfg.WordPress, httpClient, invoker, logger)
	if err != nil {
		return nil, err
	}

	scratchMgr := scratch.New(cfg.Paths.ScratchDir, logger)
	maxAge := time.Duration(cfg.Scratch.MaxAgeHours) * time.Hour
	scratch.CleanStale(ctx, cfg.Paths.ScratchDir, maxAge, logger)

	var (
		renderer video.Renderer
		uploader video.Uploader
	)
	if cfg.Video.Enabled {
		renderer = video.NewFFmpegRenderer(cfg.Video, scratchMgr, logger)
		if cfg.Video.Upload {
			uploader = video.NewAuthorizedUploader(cfg.YouTube, httpClient, invoker, logger)
		}
	}

	store, err := history.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	recorder := metrics.New(cfg.Metrics.TextfilePath)
	orch, err := pipeline.New(pipeline.Dependencies{
		Selector:  selector,
		History:   store,
		Generator: gen,
		CMS:       wp,
		Renderer:  renderer,
		Uploader:  uploader,
		Scratch:   scratchMgr,
		Notifier:  notifications.NewService(cfg),
		Metrics:   recorder,
		Logger:    logger,
	}, pipeline.Options{
		MaxAttempts:   cfg.Catalog.MaxAttempts,
		PostStatus:    cfg.WordPress.Status,
		Categories:    cfg.WordPress.Categories,
		VideoTags:     cfg.YouTube.Tags,
		VideoCategory: cfg.YouTube.CategoryID,
		VideoPrivacy:  cfg.YouTube.PrivacyStatus,
		RunLockPath:   cfg.RunLockPath(),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &runner{orchestrator: orch, history: store, metrics: recorder}, nil
}

func buildGenerator(cfg *config.Config, httpClient *http.Client, invoker *retry.Invoker, logger *slog.Logger) (*generator.Service, error) {
	gen := cfg.Generation
	models, err := generator.NewOpenAI(generator.OpenAIConfig{
		APIKey:      gen.APIKey,
		BaseURL:     gen.BaseURL,
		TextModel:   gen.TextModel,
		ImageModel:  gen.ImageModel,
		ImageSize:   gen.ImageSize,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		SpeechModel: cfg.Speech.Model,
		Voice:       cfg.Speech.Voice,
		MaxRetries:  cfg.Retry.Attempts - 1,
	}, httpClient)
	if err != nil {
		return nil, err
	}

	var speaker generator.Speaker = models
	switch cfg.Speech.Provider {
	case "elevenlabs":
		speaker, err = generator.NewElevenLabs(generator.ElevenLabsConfig{
			APIKey:       cfg.Speech.APIKey,
			BaseURL:      cfg.Speech.BaseURL,
			VoiceID:      cfg.Speech.Voice,
			ModelID:      cfg.Speech.Model,
			OutputFormat: cfg.Speech.OutputFormat,
		}, httpClient, invoker)
		if err != nil {
			return nil, err
		}
	default:
		if cfg.Speech.APIKey != gen.APIKey || cfg.Speech.BaseURL != gen.BaseURL {
			speaker, err = generator.NewOpenAI(generator.OpenAIConfig{
				APIKey:      cfg.Speech.APIKey,
				BaseURL:     cfg.Speech.BaseURL,
				SpeechModel: cfg.Speech.Model,
				Voice:       cfg.Speech.Voice,
				MaxRetries:  cfg.Retry.Attempts - 1,
			}, httpClient)
			if err != nil {
				return nil, err
			}
		}
	}

	return generator.NewService(models, models, speaker, generator.Options{
		Language:   gen.Language,
		BodyFormat: gen.BodyFormat,
	}, logger), nil
}
