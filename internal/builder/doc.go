// Package builder drives the SIP build pipeline through its stages and
// owns the build state machine. Stage progress and the build report are
// pushed to the store after every transition so a build can be observed and
// inspected while it runs.
package builder
