// Package logging assembles structured slog loggers and formatting helpers used
// across autopost.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code tags log lines with the run
// ID, stage, and candidate key automatically. NewNop provides a silent logger
// for tests and optional wiring.
package logging
