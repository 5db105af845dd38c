// Package logging assembles structured slog loggers and attribute helpers used
// across curaextract.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and provides the warning conventions (event_type, error_hint,
// impact) that every degraded-but-continuing extraction path uses. A no-op
// logger is available for tests and wiring code that cannot fail.
package logging
