package cms_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"autopost/internal/cms"
	"autopost/internal/config"
	"autopost/internal/retry"
)

func newClient(t *testing.T, srv *httptest.Server, attempts int) *cms.WordPress {
	t.Helper()
	inv := retry.New(retry.WithAttempts(attempts), retry.WithSleeper(func(time.Duration) {}))
	client, err := cms.NewWordPress(config.WordPress{
		BaseURL:             srv.URL + "/",
		Username:            "editor",
		ApplicationPassword: "app pass",
	}, srv.Client(), inv, nil)
	if err != nil {
		t.Fatalf("NewWordPress: %v", err)
	}
	return client
}

func TestUploadMediaSendsHeadersAndReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wp-json/wp/v2/media" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "editor" || pass != "app pass" {
			t.Errorf("unexpected basic auth %q %q %v", user, pass, ok)
		}
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("unexpected content type %q", got)
		}
		if got := r.Header.Get("Content-Disposition"); got != "attachment; filename=owl.png" {
			t.Errorf("unexpected disposition %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "png-bytes" {
			t.Errorf("unexpected body %q", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42,"source_url":"https://example.com/owl.png"}`)
	}))
	defer srv.Close()

	id, err := newClient(t, srv, 3).UploadMedia(context.Background(), []byte("png-bytes"), "/tmp/scratch/owl.png", "image/png")
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected media id 42, got %d", id)
	}
}

func TestUploadMediaRequiresCreated(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"id":7}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, 3).UploadMedia(context.Background(), []byte("x"), "a.mp3", "audio/mpeg")
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestMediaURLPollsUntilSourceURLAppears(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/media/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) < 3 {
			_, _ = io.WriteString(w, `{"id":42,"source_url":""}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":42,"source_url":"https://example.com/owl.png"}`)
	}))
	defer srv.Close()

	url, err := newClient(t, srv, 3).MediaURL(context.Background(), 42)
	if err != nil {
		t.Fatalf("MediaURL: %v", err)
	}
	if url != "https://example.com/owl.png" || calls.Load() != 3 {
		t.Fatalf("got %q after %d calls", url, calls.Load())
	}
}

func TestCreatePostSendsDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wp/v2/posts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var draft map[string]any
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Errorf("decode draft: %v", err)
		}
		if draft["title"] != "The Curious Owl" || draft["status"] != "publish" {
			t.Errorf("unexpected draft %v", draft)
		}
		if draft["featured_media"] != float64(42) {
			t.Errorf("expected featured media 42, got %v", draft["featured_media"])
		}
		if !strings.HasPrefix(draft["content"].(string), `[audio src="https://example.com/a.mp3"]`+"\n") {
			t.Errorf("unexpected content %q", draft["content"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":100,"link":"https://example.com/?p=100"}`)
	}))
	defer srv.Close()

	content := cms.ComposeContent(cms.AudioEmbed("https://example.com/a.mp3"), "<p>story</p>")
	id, err := newClient(t, srv, 1).CreatePost(context.Background(), cms.PostDraft{
		Title:         "The Curious Owl",
		Content:       content,
		Categories:    []int64{3},
		FeaturedMedia: 42,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if id != 100 {
		t.Fatalf("expected post id 100, got %d", id)
	}
}

func TestComposeContentWithoutAudio(t *testing.T) {
	if got := cms.ComposeContent(cms.AudioEmbed("  "), "<p>x</p>"); got != "\n<p>x</p>" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestNewWordPressRequiresBaseURL(t *testing.T) {
	if _, err := cms.NewWordPress(config.WordPress{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
