package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autopost/internal/catalog"
	"autopost/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit the used-candidate history",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryAddCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	return historyCmd
}

func withHistory(ctx *commandContext, fn func(history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg, ctx.log())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published candidates in the order they were used",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store history.Store) error {
				set, err := store.Load(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if set.Len() == 0 {
					fmt.Fprintln(out, "History is empty")
					return nil
				}
				rows := make([][]string, 0, set.Len())
				for i, key := range set.Keys() {
					c, err := catalog.ParseKey(key)
					if err != nil {
						rows = append(rows, []string{strconv.Itoa(i + 1), key, "", "(unparseable)"})
						continue
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), c.Subject, c.Attribute, c.DisplayName()})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"#", "Subject", "Attribute", "Name"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newHistoryAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <subject> <attribute>",
		Short: "Mark a candidate as used",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := catalog.Candidate{Subject: args[0], Attribute: args[1]}
			return withHistory(ctx, func(store history.Store) error {
				if err := store.Append(cmd.Context(), c.Key()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as used\n", c.DisplayName())
				return nil
			})
		},
	}
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <subject> <attribute>",
		Short: "Make a candidate available again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := catalog.Candidate{Subject: args[0], Attribute: args[1]}
			return withHistory(ctx, func(store history.Store) error {
				removed, err := store.Remove(cmd.Context(), c.Key())
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("%s is not in history", c.DisplayName())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from history\n", c.DisplayName())
				return nil
			})
		},
	}
}
