package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"autopost/internal/catalog"
	"autopost/internal/history"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Subject catalog utilities",
	}
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	return catalogCmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show subjects, attributes, and how many candidates remain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			subjects, err := catalog.LoadSubjects(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			selector := catalog.NewSelector(subjects, cfg.Catalog.Attributes)

			return withHistory(ctx, func(store history.Store) error {
				used, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(subjects))
				remaining := 0
				for _, subject := range selector.Subjects() {
					free := 0
					for _, attribute := range selector.Attributes() {
						if !used.Contains(catalog.Candidate{Subject: subject, Attribute: attribute}.Key()) {
							free++
						}
					}
					remaining += free
					rows = append(rows, []string{subject, strconv.Itoa(len(selector.Attributes()) - free), strconv.Itoa(free)})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Catalog: %s\n", cfg.Catalog.Path)
				fmt.Fprintf(out, "Attributes: %s\n", strings.Join(selector.Attributes(), ", "))
				fmt.Fprintf(out, "Candidates: %d total, %d remaining\n", selector.Size(), remaining)
				fmt.Fprintln(out, renderTable(out,
					[]string{"Subject", "Used", "Remaining"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
