package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"autopost/internal/catalog"
	"autopost/internal/cms"
	"autopost/internal/config"
	"autopost/internal/deps"
	"autopost/internal/logging"
	"autopost/internal/video"
)

const remoteCheckTimeout = 5 * time.Second

// CheckWordPress verifies the REST index answers. It uses a single attempt.
func CheckWordPress(ctx context.Context, cfg config.WordPress, client *http.Client) Result {
	const name = "WordPress"

	if client == nil {
		client = &http.Client{Timeout: remoteCheckTimeout}
	}
	wp, err := cms.NewWordPress(cfg, client, nil, logging.NewNop())
	if err != nil {
		return Result{Name: name, Detail: "missing base_url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()
	if err := wp.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: cfg.BaseURL + " (reachable)"}
}

// CheckCatalog verifies the subject catalog parses and is non-empty.
func CheckCatalog(path string) Result {
	const name = "Subject catalog"
	subjects, err := catalog.LoadSubjects(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(subjects) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no subjects)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d subjects)", path, len(subjects))}
}

// CheckCredentials reports missing API keys and passwords.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Credentials"
	if err := cfg.ValidateCredentials(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckYouTubeToken verifies a stored OAuth token is present.
func CheckYouTubeToken(path string) Result {
	const name = "YouTube token"
	tok, err := video.NewTokenStore(path).Load()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	detail := path
	if !tok.Expiry.IsZero() && tok.Expiry.Before(time.Now()) {
		detail += " (expired, will refresh)"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the enabled stages need.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil || !cfg.Video.Enabled {
		return nil
	}
	return []deps.Status{deps.CheckFFmpeg(cfg.Video.FFmpegBinary)}
}

func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (server unreachable)"
	}
	return err.Error()
}
