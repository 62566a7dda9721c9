// Package preflight provides readiness checks for the filesystem paths,
// binaries, and remote services a publishing run depends on.
//
// The "autopost doctor" command prints every result, and "autopost run"
// refuses to start when a required check fails. Checks gated by a config
// toggle are skipped when the feature is disabled.
package preflight
