// Package report implements the append-only build report. Concurrent stages
// append typed entries; the builder finalizes the report exactly once with
// the terminal build state.
package report
