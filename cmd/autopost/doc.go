// Package main hosts the autopost CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the HTTP, CMS,
// generation, and video clients, and injects them into the pipeline
// orchestrator. Maintenance commands inspect and edit the history file and
// subject catalog, scaffold configuration, and run readiness checks.
//
// Keep this package lean: behavior belongs in the internal packages, and
// commands here only wire and render.
package main
