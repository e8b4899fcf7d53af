// Package config loads, normalizes, and validates reelscript configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as OPENROUTER_API_KEY and REELSCRIPT_API_TOKEN.
// The Config type centralizes every knob the daemon and CLI need: scraper
// throttling, engagement weights, clustering cardinality, external media
// tools, worker pool sizing and the empty-pool policy for script generation.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
