package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autopost/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, binaries, and remote services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg, newHTTPClient(cfg))
			fmt.Fprintln(out, "Readiness checks")
			for _, r := range results {
				status := checkOK
				switch {
				case r.Passed:
				case r.Optional:
					status = checkWarn
				default:
					status = checkFail
				}
				fmt.Fprintln(out, renderCheckLine(r.Name, status, r.Detail, colorize))
			}
			fmt.Fprintf(out, "\nVideo: %s  Upload: %s  History: %s\n",
				yesNo(cfg.Video.Enabled), yesNo(cfg.Video.Enabled && cfg.Video.Upload), cfg.History.Backend)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
