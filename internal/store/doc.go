// Package store persists build records and their report snapshots in a
// SQLite database so build state survives process restarts and can be
// inspected from the CLI.
package store
