// Package services defines shared utilities consumed by the pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and candidate keys for
//     logging.
//   - Structured error markers plus the Wrap helper so failures from CMS,
//     generation, and encoder calls classify the same way everywhere.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the pipeline.
package services
