// Package config loads, normalizes, and validates Scribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and pipeline need: output/staging/log directories, the media extension
// allow-list, transcription generation parameters, and external tool names.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors. The
// orchestrator treats the loaded Config as an immutable snapshot for the
// duration of one run.
package config
