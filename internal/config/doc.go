// Package config loads, normalizes, and validates barfinder configuration data.
//
// It supplies repository defaults, expands user and relative paths (including
// tilde shortcuts), reads TOML files, and honours environment fallbacks such as
// BARFINDER_DATABASE_URL. The Config type centralizes every knob the match run
// and the CLI need, so the battle database, observation document, output
// documents, matching thresholds, and worker pool size are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
