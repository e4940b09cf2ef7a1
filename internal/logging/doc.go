// Package logging builds slog loggers for the CLI and build pipeline.
//
// It supports console and JSON output, multi-destination writers (stdout plus
// a log file), typed attr helpers, and context-derived fields so every record
// produced while processing a build carries the build id, stage, and document
// kind.
package logging
