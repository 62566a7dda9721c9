// Package config loads, normalizes, and validates autopost configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and WORDPRESS_APPLICATION_PASSWORD. The Config type centralizes
// every knob the CLI needs so state directories, the subject catalog, and
// external service credentials are discovered in one pass.
//
// Structural problems are reported by Validate during Load. Missing secrets are
// reported by ValidateCredentials, which only publishing commands call.
package config
