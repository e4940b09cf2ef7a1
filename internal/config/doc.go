// Package config loads, normalizes, and validates SIP builder configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and layers documented environment overrides
// such as VALIDATION_ROSETTA_METS_XSD and SIP_OUTPUT on top. The Config type
// centralizes every knob the CLI and build pipeline need, including the
// schema references the registry is constructed from.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical schema references, and clear validation errors.
package config
