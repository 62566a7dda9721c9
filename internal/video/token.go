package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"autopost/internal/config"
	"autopost/internal/fileutil"
	"autopost/internal/logging"
	"autopost/internal/services"
)

// ErrAuthorizationMissing reports that no usable OAuth token is cached.
var ErrAuthorizationMissing = errors.New("youtube authorization missing")

const uploadScope = "https://www.googleapis.com/auth/youtube.upload"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// TokenStore persists an OAuth token as JSON.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store backed by path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: strings.TrimSpace(path)}
}

// Path returns the token file location.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the cached token.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%w: youtube.token_path not configured", ErrAuthorizationMissing)
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no token at %s", ErrAuthorizationMissing, s.path)
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: token file %s is malformed: %v", ErrAuthorizationMissing, s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file %s has no credentials", ErrAuthorizationMissing, s.path)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("nil token")
	}
	return fileutil.WriteJSONAtomic(s.path, tok, 0o600)
}

// persistingSource writes every newly issued access token back to the store.
type persistingSource struct {
	src    oauth2.TokenSource
	store  *TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := p.store.Save(tok); err != nil {
			logging.WarnWithContext(p.logger, "failed to persist refreshed token", "token_persist_failed",
				logging.String("path", p.store.Path()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run will refresh again"))
		} else {
			p.last = tok.AccessToken
		}
	}
	return tok, nil
}

// TokenSource wraps the cached token in a refreshing source that persists
// refreshed tokens.
func TokenSource(ctx context.Context, cfg config.YouTube, store *TokenStore, logger *slog.Logger) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and has no refresh token", ErrAuthorizationMissing)
	}
	if !tok.Valid() && (cfg.ClientID == "" || cfg.ClientSecret == "") {
		return nil, services.Wrap(services.ErrConfiguration, "uploading_video", "token refresh",
			"youtube.client_id and youtube.client_secret are required to refresh tokens", ErrAuthorizationMissing)
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     googleEndpoint,
		Scopes:       []string{uploadScope},
	}
	src := &persistingSource{
		src:    oauthCfg.TokenSource(ctx, tok),
		store:  store,
		logger: logging.NewComponentLogger(logger, "youtube-auth"),
		last:   tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, src), nil
}

// NewOAuthClient returns an HTTP client that authorizes requests with the
// cached token. base supplies transport and timeout settings.
func NewOAuthClient(ctx context.Context, cfg config.YouTube, store *TokenStore, base *http.Client, logger *slog.Logger) (*http.Client, error) {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	src, err := TokenSource(ctx, cfg, store, logger)
	if err != nil {
		return nil, err
	}
	client := oauth2.NewClient(ctx, src)
	if base != nil {
		client.Timeout = base.Timeout
	}
	return client, nil
}
