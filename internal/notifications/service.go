package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autopost/internal/config"
)

const userAgent = "autopost/0.1"

// Event names a run milestone.
type Event string

const (
	EventPostPublished Event = "post_published"
	EventStageDegraded Event = "stage_degraded"
	EventRunFailed     Event = "run_failed"
	EventTest          Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]string

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventPostPublished: cfg.Notifications.Published,
			EventStageDegraded: cfg.Notifications.Degraded,
			EventRunFailed:     cfg.Notifications.Errors,
			EventTest:          true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	get := func(key string) string { return strings.TrimSpace(payload[key]) }

	switch event {
	case EventPostPublished:
		body := fmt.Sprintf("📝 Published: %s", get("title"))
		if id := get("postID"); id != "" {
			body += fmt.Sprintf(" (post %s)", id)
		}
		if link := get("link"); link != "" {
			body += "\n" + link
		}
		if video := get("videoID"); video != "" {
			body += "\nVideo: " + video
		}
		return message{
			title: "autopost - Published",
			body:  body,
			tags:  []string{"autopost", "post", "published"},
		}, true
	case EventStageDegraded:
		return message{
			title: "autopost - Degraded",
			body:  fmt.Sprintf("⚠️ %s skipped for %s: %s", fallback(get("stage"), "stage"), fallback(get("title"), "post"), fallback(get("error"), "unknown")),
			tags:  []string{"autopost", "degraded", fallback(get("stage"), "stage")},
		}, true
	case EventRunFailed:
		var b strings.Builder
		b.WriteString("❌ Error")
		if stage := get("stage"); stage != "" {
			b.WriteString(" during ")
			b.WriteString(stage)
		}
		b.WriteString(": ")
		b.WriteString(fallback(get("error"), "unknown"))
		return message{
			title:    "autopost - Error",
			body:     b.String(),
			tags:     []string{"autopost", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "autopost - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"autopost", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNoop returns a service that drops every event.
func NewNoop() Service { return noopService{} }

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
