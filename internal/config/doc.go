// Package config loads, normalizes, and validates inkflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// INKFLOW_DATABASE_URL. The queue directories default to siblings under the
// intake root so every claim and disposition is a same-volume rename.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical strategy names, and clear validation errors.
package config
