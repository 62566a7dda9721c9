package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/retry"
	"autopost/internal/services"
)

// Client is the subset of the CMS the publish pipeline needs.
type Client interface {
	UploadMedia(ctx context.Context, blob []byte, filename, mimeType string) (int64, error)
	MediaURL(ctx context.Context, mediaID int64) (string, error)
	CreatePost(ctx context.Context, draft PostDraft) (int64, error)
}

// PostDraft is the payload for a new post.
type PostDraft struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Status        string  `json:"status"`
	Categories    []int64 `json:"categories,omitempty"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
}

// HTTPDoer describes the HTTP client used by WordPress.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WordPress talks to the wp/v2 REST endpoints using application-password
// basic auth.
type WordPress struct {
	baseURL  string
	username string
	password string
	client   HTTPDoer
	invoker  *retry.Invoker
	logger   *slog.Logger
}

// NewWordPress builds a client from the wordpress config section.
func NewWordPress(cfg config.WordPress, client HTTPDoer, invoker *retry.Invoker, logger *slog.Logger) (*WordPress, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publishing", "init", "wordpress.base_url is empty", nil)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if invoker == nil {
		invoker = retry.New(retry.WithLogger(logger))
	}
	return &WordPress{
		baseURL:  baseURL,
		username: strings.TrimSpace(cfg.Username),
		password: strings.TrimSpace(cfg.ApplicationPassword),
		client:   client,
		invoker:  invoker,
		logger:   logging.NewComponentLogger(logger, "wordpress"),
	}, nil
}

type mediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

type postResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// UploadMedia uploads a binary attachment and returns its media id.
func (w *WordPress) UploadMedia(ctx context.Context, blob []byte, filename, mimeType string) (int64, error) {
	if len(blob) == 0 {
		return 0, services.Wrap(services.ErrValidation, "publishing", "upload media", "media payload is empty", nil)
	}
	name := filepath.Base(filename)
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})

	resp, err := w.invoker.Do(ctx, "wordpress upload media", func(ctx context.Context) (*http.Response, error) {
		req, err := w.newRequest(ctx, http.MethodPost, "/wp-json/wp/v2/media", bytes.NewReader(blob))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mimeType)
		req.Header.Set("Content-Disposition", disposition)
		return w.client.Do(req)
	}, retry.ExpectStatus(http.StatusCreated))
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "upload media", name, err)
	}
	defer resp.Body.Close()

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "upload media", "decode response", err)
	}
	if media.ID == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "upload media", "response has no media id", nil)
	}
	logging.WithContext(ctx, w.logger).Info("media uploaded",
		logging.Int64("media_id", media.ID),
		logging.String("filename", name),
		logging.String("mime", mimeType))
	return media.ID, nil
}

// MediaURL returns the public URL of an attachment. WordPress may publish the
// attachment before its source_url is populated, so an empty value counts as
// a failed attempt.
func (w *WordPress) MediaURL(ctx context.Context, mediaID int64) (string, error) {
	var media mediaResponse
	ready := func(resp *http.Response) bool {
		if resp.StatusCode != http.StatusOK {
			return false
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
		if err != nil {
			return false
		}
		media = mediaResponse{}
		if err := json.Unmarshal(data, &media); err != nil {
			return false
		}
		return strings.TrimSpace(media.SourceURL) != ""
	}

	path := fmt.Sprintf("/wp-json/wp/v2/media/%d", mediaID)
	resp, err := w.invoker.Do(ctx, "wordpress media url", func(ctx context.Context) (*http.Response, error) {
		req, err := w.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		return w.client.Do(req)
	}, retry.WithSuccess(ready))
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publishing", "resolve media url", fmt.Sprintf("media %d", mediaID), err)
	}
	resp.Body.Close()
	return strings.TrimSpace(media.SourceURL), nil
}

// CreatePost creates a post and returns its id.
func (w *WordPress) CreatePost(ctx context.Context, draft PostDraft) (int64, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return 0, services.Wrap(services.ErrValidation, "publishing", "create post", "title is empty", nil)
	}
	if draft.Status == "" {
		draft.Status = "publish"
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return 0, fmt.Errorf("marshal post: %w", err)
	}

	resp, err := w.invoker.Do(ctx, "wordpress create post", func(ctx context.Context) (*http.Response, error) {
		req, err := w.newRequest(ctx, http.MethodPost, "/wp-json/wp/v2/posts", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return w.client.Do(req)
	}, retry.ExpectStatus(http.StatusCreated))
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "create post", draft.Title, err)
	}
	defer resp.Body.Close()

	var post postResponse
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "create post", "decode response", err)
	}
	if post.ID == 0 {
		return 0, services.Wrap(services.ErrExternalTool, "publishing", "create post", "response has no post id", nil)
	}
	logging.WithContext(ctx, w.logger).Info("post created",
		logging.Int64("post_id", post.ID),
		logging.String("link", post.Link))
	return post.ID, nil
}

// Ping checks that the REST index answers. It does not retry.
func (w *WordPress) Ping(ctx context.Context) error {
	req, err := w.newRequest(ctx, http.MethodGet, "/wp-json/", nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach wordpress: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("wordpress returned %d", resp.StatusCode)
	}
	return nil
}

func (w *WordPress) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, w.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build wordpress request: %w", err)
	}
	if w.username != "" || w.password != "" {
		req.SetBasicAuth(w.username, w.password)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// AudioEmbed returns the shortcode that embeds an audio player, or "" when no
// URL is available.
func AudioEmbed(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	return `[audio src="` + url + `"]`
}

// ComposeContent prefixes the body with the audio embed.
func ComposeContent(audioEmbed, body string) string {
	return audioEmbed + "\n" + body
}
