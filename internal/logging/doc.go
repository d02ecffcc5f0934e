// Package logging wraps log/slog with the handlers and attribute helpers
// shared by the daemon, the workers, and the CLI.
package logging
