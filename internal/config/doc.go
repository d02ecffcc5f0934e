// Package config loads, normalizes, and validates soundcheck configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SOUNDCHECK_ENGINE_BINARY. The Config type centralizes every knob the daemon
// and CLI need: socket locations, worker hosting, per-phase deadlines, and
// log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
