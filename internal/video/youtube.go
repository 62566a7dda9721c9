package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/retry"
	"autopost/internal/services"
)

const (
	videoMimeType       = "video/mp4"
	maxTitleRunes       = 100
	maxDescriptionBytes = 5000
)

// Metadata describes an uploaded video.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// Uploader publishes a rendered video and returns its id.
type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta Metadata) (string, error)
}

// YouTube uploads videos through the YouTube Data API.
type YouTube struct {
	client   *http.Client
	invoker  *retry.Invoker
	endpoint string
	logger   *slog.Logger
}

// YouTubeOption customizes the uploader.
type YouTubeOption func(*YouTube)

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) YouTubeOption {
	return func(y *YouTube) { y.endpoint = strings.TrimRight(endpoint, "/") + "/" }
}

// NewYouTube builds an uploader. client must already carry authorization.
func NewYouTube(client *http.Client, invoker *retry.Invoker, logger *slog.Logger, opts ...YouTubeOption) *YouTube {
	if invoker == nil {
		invoker = retry.New(retry.WithLogger(logger))
	}
	if client == nil {
		client = http.DefaultClient
	}
	y := &YouTube{
		client:  client,
		invoker: invoker,
		logger:  logging.NewComponentLogger(logger, "youtube"),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *YouTube) service(ctx context.Context) (*youtube.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(y.client)}
	if y.endpoint != "" {
		opts = append(opts, option.WithEndpoint(y.endpoint))
	}
	return youtube.NewService(ctx, opts...)
}

// Upload inserts the video with its snippet and status. The API client picks
// a multipart or resumable transfer from the file size.
func (y *YouTube) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "uploading_video", "stat video", videoPath, err)
	}
	svc, err := y.service(ctx)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "uploading_video", "build client", "", err)
	}

	resource := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncateRunes(meta.Title, maxTitleRunes),
			Description: truncateBytes(meta.Description, maxDescriptionBytes),
			Tags:        meta.Tags,
			CategoryId:  firstNonEmpty(meta.CategoryID, "22"),
		},
		Status: &youtube.VideoStatus{PrivacyStatus: firstNonEmpty(meta.PrivacyStatus, "public")},
	}

	var uploaded *youtube.Video
	resp, err := y.invoker.Do(ctx, "youtube upload video", func(ctx context.Context) (*http.Response, error) {
		file, err := os.Open(videoPath)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		video, err := svc.Videos.Insert([]string{"snippet", "status"}, resource).
			Media(file, googleapi.ContentType(videoMimeType)).
			Context(ctx).
			Do()
		if err != nil {
			return apiErrorResponse(err)
		}
		uploaded = video
		return &http.Response{StatusCode: video.HTTPStatusCode, Header: video.Header, Body: http.NoBody}, nil
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "uploading_video", "upload", "insert video", err)
	}
	resp.Body.Close()

	if uploaded == nil || uploaded.Id == "" {
		return "", services.Wrap(services.ErrExternalTool, "uploading_video", "upload", "response has no video id", nil)
	}
	logging.WithContext(ctx, y.logger).Info("video uploaded",
		logging.String("video_id", uploaded.Id),
		logging.Int64("bytes", info.Size()))
	return uploaded.Id, nil
}

// apiErrorResponse turns a googleapi error back into a response so the
// invoker can apply its status and Retry-After handling.
func apiErrorResponse(err error) (*http.Response, error) {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code == 0 {
		return nil, err
	}
	body := apiErr.Body
	if body == "" {
		body = apiErr.Message
	}
	return &http.Response{
		StatusCode: apiErr.Code,
		Status:     fmt.Sprintf("%d %s", apiErr.Code, http.StatusText(apiErr.Code)),
		Header:     apiErr.Header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func truncateRunes(value string, limit int) string {
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

func truncateBytes(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := value[:limit]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// AuthorizedUploader builds the OAuth client on first use so a missing token
// only fails the upload stage, not the whole run.
type AuthorizedUploader struct {
	cfg     config.YouTube
	store   *TokenStore
	base    *http.Client
	invoker *retry.Invoker
	logger  *slog.Logger

	once     sync.Once
	uploader *YouTube
	err      error
}

// NewAuthorizedUploader returns an uploader backed by the token at cfg.TokenPath.
func NewAuthorizedUploader(cfg config.YouTube, base *http.Client, invoker *retry.Invoker, logger *slog.Logger) *AuthorizedUploader {
	return &AuthorizedUploader{
		cfg:     cfg,
		store:   NewTokenStore(cfg.TokenPath),
		base:    base,
		invoker: invoker,
		logger:  logger,
	}
}

// Upload authorizes once, then delegates to YouTube.Upload.
func (a *AuthorizedUploader) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	a.once.Do(func() {
		// The token source outlives this call, so it must not inherit the
		// run context's cancellation.
		client, err := NewOAuthClient(context.WithoutCancel(ctx), a.cfg, a.store, a.base, a.logger)
		if err != nil {
			a.err = err
			return
		}
		a.uploader = NewYouTube(client, a.invoker, a.logger)
	})
	if a.err != nil {
		return "", services.Wrap(services.ErrConfiguration, "uploading_video", "authorize", "", a.err)
	}
	return a.uploader.Upload(ctx, videoPath, meta)
}
