// Package services provides shared error classification and context plumbing
// used across build stages.
//
// Stage code wraps failures with Wrap so the builder can distinguish fatal
// misconfiguration from per-document diagnostics, and context helpers carry
// the build identifier, stage, and document kind for structured logging.
package services
