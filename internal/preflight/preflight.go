package preflight

import (
	"context"
	"net/http"

	"autopost/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results are reported but do not block a run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// Remote checks use client, or a short-timeout default when nil.
func RunAll(ctx context.Context, cfg *config.Config, client *http.Client) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckCatalog(cfg.Catalog.Path))
	results = append(results, CheckCredentials(cfg))
	results = append(results, CheckWordPress(ctx, cfg.WordPress, client))

	if cfg.Video.Enabled {
		for _, status := range CheckSystemDeps(cfg) {
			r := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Command}
			if !status.Available {
				r.Detail = status.Detail
			}
			results = append(results, r)
		}
		if cfg.Video.Upload {
			// A missing token only skips the upload stage.
			token := CheckYouTubeToken(cfg.YouTube.TokenPath)
			token.Optional = true
			results = append(results, token)
		}
	}

	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
