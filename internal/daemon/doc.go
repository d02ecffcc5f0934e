// Package daemon runs the background analysis service: it owns the worker
// pool, claims pending jobs off the queue, and persists their progress and
// results. A lock file enforces one daemon per data directory.
package daemon
