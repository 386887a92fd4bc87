// Package logging provides structured logging helpers built on log/slog.
//
// It defines common attribute keys and typed attribute constructors so that
// log lines across the application use consistent field names, and helpers
// to anonymize recipient addresses before they reach the logs.
package logging
