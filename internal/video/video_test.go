package video

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/youtube/v3"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/retry"
	"autopost/internal/scratch"
	"autopost/internal/services"
	"autopost/internal/testsupport"
)

func TestBuildArgsWithAudio(t *testing.T) {
	args := buildArgs("img.png", "audio.mp3", "out.mp4", 1920, 1080)
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-loop 1 -i img.png -i audio.mp3",
		"scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2",
		"-c:v libx264 -tune stillimage -c:a aac -b:a 192k -pix_fmt yuv420p -shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output must be last, got %v", args)
	}
	if slices.Contains(args, "lavfi") {
		t.Fatal("silent source must not be used when audio exists")
	}
}

func TestBuildArgsSilentTrack(t *testing.T) {
	joined := strings.Join(buildArgs("img.png", "", "out.mp4", 0, 0), " ")
	if !strings.Contains(joined, "-f lavfi -i anullsrc=channel_layout=stereo:sample_rate=44100 -t 30") {
		t.Fatalf("expected silent track, got %q", joined)
	}
	if strings.Contains(joined, "scale=") {
		t.Fatalf("no scaling expected without dimensions, got %q", joined)
	}
}

func TestFFmpegRendererRunsBinary(t *testing.T) {
	base := t.TempDir()
	testsupport.StubBinary(t, base, "ffmpeg", testsupport.FakeFFmpegScript)
	manager := scratch.New(filepath.Join(base, "scratch"), logging.NewNop())
	image, err := manager.Write(scratch.KindImage, "png", []byte("png"))
	if err != nil {
		t.Fatalf("write image: %v", err)
	}

	renderer := NewFFmpegRenderer(config.Video{FFmpegBinary: "ffmpeg", Width: 640, Height: 360, RenderTimeout: 10}, manager, logging.NewNop())
	out, err := renderer.Render(context.Background(), image, filepath.Join(base, "missing.mp3"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "video" {
		t.Fatalf("unexpected output %q, %v", data, err)
	}
	if filepath.Dir(out) != filepath.Join(manager.Root(), "videos") {
		t.Fatalf("video should be in scratch videos dir, got %s", out)
	}
	if !slices.Contains(manager.Tracked(), out) {
		t.Fatal("rendered video should be tracked for cleanup")
	}
}

func TestFFmpegRendererReportsFailure(t *testing.T) {
	base := t.TempDir()
	testsupport.StubBinary(t, base, "ffmpeg", "#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n")
	manager := scratch.New(filepath.Join(base, "scratch"), nil)

	_, err := NewFFmpegRenderer(config.Video{}, manager, nil).Render(context.Background(), "img.png", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

// readUploadParts splits a multipart/related insert into its metadata and media parts.
func readUploadParts(t *testing.T, r *http.Request) (youtube.Video, []byte, string) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/related" {
		t.Fatalf("unexpected content type %q: %v", r.Header.Get("Content-Type"), err)
	}
	reader := multipart.NewReader(r.Body, params["boundary"])
	metaPart, err := reader.NextPart()
	if err != nil {
		t.Fatalf("metadata part: %v", err)
	}
	var resource youtube.Video
	if err := json.NewDecoder(metaPart).Decode(&resource); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	mediaPart, err := reader.NextPart()
	if err != nil {
		t.Fatalf("media part: %v", err)
	}
	data, _ := io.ReadAll(mediaPart)
	return resource, data, mediaPart.Header.Get("Content-Type")
}

func TestYouTubeUploadInsertsVideo(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, videoPath, []byte("mp4-bytes"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/youtube/v3/videos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("part") != "snippet,status" {
			t.Errorf("unexpected part %q", r.URL.Query().Get("part"))
		}
		resource, data, contentType := readUploadParts(t, r)
		if resource.Snippet.Title != "The Curious Owl" || resource.Snippet.CategoryId != "22" || resource.Status.PrivacyStatus != "public" {
			t.Errorf("unexpected metadata %+v %+v", resource.Snippet, resource.Status)
		}
		if !slices.Equal(resource.Snippet.Tags, []string{"AI", "Owl"}) {
			t.Errorf("unexpected tags %v", resource.Snippet.Tags)
		}
		if string(data) != "mp4-bytes" || contentType != "video/mp4" {
			t.Errorf("unexpected media %q %q", data, contentType)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"yt-123"}`)
	}))
	defer srv.Close()

	inv := retry.New(retry.WithAttempts(1))
	uploader := NewYouTube(srv.Client(), inv, logging.NewNop(), WithEndpoint(srv.URL))
	id, err := uploader.Upload(context.Background(), videoPath, Metadata{
		Title:       "The Curious Owl",
		Description: "Once upon a time.",
		Tags:        []string{"AI", "Owl"},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "yt-123" {
		t.Fatalf("expected yt-123, got %s", id)
	}
}

func TestYouTubeUploadRetriesServerErrors(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, videoPath, []byte("mp4-bytes"))

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, data, _ := readUploadParts(t, r)
		if string(data) != "mp4-bytes" {
			t.Errorf("attempt %d sent %q", calls, data)
		}
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"backend error"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"yt-456"}`)
	}))
	defer srv.Close()

	inv := retry.New(retry.WithAttempts(3), retry.WithSleeper(func(time.Duration) {}))
	id, err := NewYouTube(srv.Client(), inv, logging.NewNop(), WithEndpoint(srv.URL)).
		Upload(context.Background(), videoPath, Metadata{Title: "Clip"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "yt-456" || calls < 2 {
		t.Fatalf("expected yt-456 after a retry, got %q after %d calls", id, calls)
	}
}

func TestYouTubeUploadReportsRejection(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	testsupport.WriteFile(t, videoPath, []byte("mp4-bytes"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"quotaExceeded"}}`)
	}))
	defer srv.Close()

	inv := retry.New(retry.WithAttempts(2), retry.WithSleeper(func(time.Duration) {}))
	_, err := NewYouTube(srv.Client(), inv, logging.NewNop(), WithEndpoint(srv.URL)).
		Upload(context.Background(), videoPath, Metadata{Title: "Clip"})
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("expected exhausted external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quotaExceeded") {
		t.Fatalf("expected api message in error, got %v", err)
	}
}

func TestYouTubeUploadMissingFile(t *testing.T) {
	_, err := NewYouTube(http.DefaultClient, nil, nil).Upload(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), Metadata{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTruncateHelpers(t *testing.T) {
	if got := truncateRunes(strings.Repeat("é", 120), 100); len([]rune(got)) != 100 {
		t.Fatalf("expected 100 runes, got %d", len([]rune(got)))
	}
	if got := truncateBytes("aé", 2); got != "a" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if _, err := store.Load(); !errors.Is(err, ErrAuthorizationMissing) {
		t.Fatalf("expected ErrAuthorizationMissing, got %v", err)
	}
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Now().Add(time.Hour).Round(time.Second)}
	if err := store.Save(tok); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(store.Path())
	if err != nil || info.Mode().Perm() != 0o600 {
		t.Fatalf("token file should be 0600, got %v (%v)", info.Mode().Perm(), err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.AccessToken != "a" || loaded.RefreshToken != "r" || !loaded.Expiry.Equal(tok.Expiry) {
		t.Fatalf("unexpected token %+v", loaded)
	}
}

func TestTokenSourceRequiresRefreshToken(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if err := store.Save(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := TokenSource(context.Background(), config.YouTube{}, store, nil)
	if !errors.Is(err, ErrAuthorizationMissing) {
		t.Fatalf("expected ErrAuthorizationMissing, got %v", err)
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestPersistingSourceSavesRefreshedToken(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	src := &persistingSource{
		src:    staticSource{tok: &oauth2.Token{AccessToken: "fresh", RefreshToken: "r"}},
		store:  store,
		logger: logging.NewNop(),
		last:   "stale",
	}
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.AccessToken != "fresh" {
		t.Fatalf("expected refreshed token persisted, got %q", saved.AccessToken)
	}
}

func TestNewOAuthClientAuthorizesRequests(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	if err := store.Save(&oauth2.Token{AccessToken: "valid", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer valid" {
			t.Errorf("unexpected authorization %q", got)
		}
	}))
	defer srv.Close()

	client, err := NewOAuthClient(context.Background(), config.YouTube{}, store, srv.Client(), nil)
	if err != nil {
		t.Fatalf("NewOAuthClient: %v", err)
	}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
}

func TestAuthorizedUploaderReportsMissingToken(t *testing.T) {
	uploader := NewAuthorizedUploader(config.YouTube{TokenPath: filepath.Join(t.TempDir(), "absent.json")}, nil, nil, nil)
	_, err := uploader.Upload(context.Background(), "clip.mp4", Metadata{})
	if !errors.Is(err, ErrAuthorizationMissing) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrAuthorizationMissing configuration error, got %v", err)
	}
}
