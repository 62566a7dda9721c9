package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"autopost/internal/catalog"
	"autopost/internal/logging"
	"autopost/internal/services"
)

// ErrGeneration marks failures returned by an upstream generation service.
var ErrGeneration = errors.New("content generation failed")

// Generator produces the text, image, and narration for a candidate.
type Generator interface {
	GenerateText(ctx context.Context, subject, attribute string) (title, htmlBody string, err error)
	GenerateImage(ctx context.Context, subject, attribute, title string) ([]byte, error)
	GenerateAudio(ctx context.Context, plainText string) ([]byte, error)
}

// TextModel completes a chat prompt.
type TextModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ImageModel renders an image for a prompt and returns encoded bytes.
type ImageModel interface {
	Image(ctx context.Context, prompt string) ([]byte, error)
}

// Speaker converts plain text to encoded audio.
type Speaker interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Options controls prompt rendering and body post-processing.
type Options struct {
	Language   string
	BodyFormat string // "html" or "markdown"
}

// Service implements Generator on top of pluggable model clients.
type Service struct {
	text    TextModel
	image   ImageModel
	speaker Speaker
	opts    Options
	logger  *slog.Logger
}

// NewService wires the model clients into a Generator.
func NewService(text TextModel, image ImageModel, speaker Speaker, opts Options, logger *slog.Logger) *Service {
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = "English"
	}
	if opts.BodyFormat == "" {
		opts.BodyFormat = "html"
	}
	return &Service{
		text:    text,
		image:   image,
		speaker: speaker,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "generator"),
	}
}

// GenerateText writes the story and derives its title from the first <h2>.
func (s *Service) GenerateText(ctx context.Context, subject, attribute string) (string, string, error) {
	system, user := StoryPrompt(subject, attribute, s.opts.Language, s.opts.BodyFormat)
	raw, err := s.text.Complete(ctx, system, user)
	if err != nil {
		return "", "", wrap("text", "chat completion failed", err)
	}

	body := StripCodeFences(raw)
	if s.opts.BodyFormat == "markdown" {
		body, err = MarkdownToHTML(body)
		if err != nil {
			return "", "", wrap("text", "convert markdown", err)
		}
	}
	body = SanitizeHTML(body)
	if strings.TrimSpace(PlainText(body)) == "" {
		return "", "", wrap("text", "model returned an empty story", nil)
	}

	title := ExtractTitle(body)
	if title == "" {
		title = catalog.Candidate{Subject: subject, Attribute: attribute}.DisplayName()
		logging.WithContext(ctx, s.logger).Debug("story has no <h2>; using fallback title",
			logging.String("title", title))
	}
	return title, body, nil
}

// GenerateImage renders an illustration for the story title.
func (s *Service) GenerateImage(ctx context.Context, subject, attribute, title string) ([]byte, error) {
	data, err := s.image.Image(ctx, ImagePrompt(subject, attribute, title))
	if err != nil {
		return nil, wrap("image", "image generation failed", err)
	}
	if len(data) == 0 {
		return nil, wrap("image", "image service returned no data", nil)
	}
	return data, nil
}

// GenerateAudio narrates the plain-text story.
func (s *Service) GenerateAudio(ctx context.Context, plainText string) ([]byte, error) {
	if strings.TrimSpace(plainText) == "" {
		return nil, wrap("audio", "narration text is empty", nil)
	}
	data, err := s.speaker.Speak(ctx, plainText)
	if err != nil {
		return nil, wrap("audio", "speech synthesis failed", err)
	}
	if len(data) == 0 {
		return nil, wrap("audio", "speech service returned no data", nil)
	}
	return data, nil
}

func wrap(operation, message string, err error) error {
	if err == nil {
		return services.Wrap(services.ErrExternalTool, "generating", operation, message, ErrGeneration)
	}
	return services.Wrap(services.ErrExternalTool, "generating", operation, message, fmt.Errorf("%w: %w", ErrGeneration, err))
}
