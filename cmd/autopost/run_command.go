package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"autopost/internal/catalog"
	"autopost/internal/pipeline"
	"autopost/internal/preflight"
	"autopost/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		count         int
		dryRun        bool
		skipPreflight bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate and publish posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			out := cmd.OutOrStdout()
			logger := ctx.log()

			if !dryRun {
				if err := cfg.ValidateCredentials(); err != nil {
					return err
				}
				if !skipPreflight {
					results := preflight.RunAll(runCtx, cfg, newHTTPClient(cfg))
					if failed := preflight.Failed(results); len(failed) > 0 {
						return preflightError(failed)
					}
				}
			}

			r, err := buildRunner(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer r.Close()

			if dryRun {
				candidate, err := r.orchestrator.Select(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Would publish: %s (%s)\n", candidate.DisplayName(), candidate.Key())
				return nil
			}

			var (
				results []pipeline.Result
				failed  int
			)
			for i := 0; i < count; i++ {
				res, runErr := r.orchestrator.Run(runCtx)
				if res.RunID != "" {
					results = append(results, res)
				}
				if runErr == nil {
					continue
				}
				failed++
				if errors.Is(runErr, catalog.ErrExhaustedCandidates) || errors.Is(runErr, catalog.ErrEmptyCatalog) {
					fmt.Fprintln(out, "No unused candidates remain")
					break
				}
				if runCtx.Err() != nil {
					break
				}
				fmt.Fprintf(out, "Run %d failed: %s\n", i+1, services.Details(runErr))
			}

			printRunResults(out, results)
			if failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, count)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of posts to publish")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Select a candidate and print it without generating")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks before publishing")
	return cmd
}

func printRunResults(out io.Writer, results []pipeline.Result) {
	if len(results) == 0 {
		return
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		post := "-"
		if res.PostID > 0 {
			post = strconv.FormatInt(res.PostID, 10)
		}
		var degraded []string
		for _, se := range res.Degraded {
			degraded = append(degraded, string(se.Stage))
		}
		rows = append(rows, []string{
			fallbackDash(res.Candidate.DisplayName()),
			fallbackDash(res.Title),
			post,
			fallbackDash(res.VideoID),
			res.Outcome(),
			fallbackDash(strings.Join(degraded, ", ")),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Candidate", "Title", "Post", "Video", "Outcome", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	))
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed (%s); run 'autopost doctor' for details", strings.Join(parts, "; "))
}

func fallbackDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
