// Package services provides the shared error taxonomy and the context keys
// used to correlate structured logs across the daemon, workers, and stages.
package services
