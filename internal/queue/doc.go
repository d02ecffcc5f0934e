// Package queue persists analysis jobs in SQLite so work survives daemon
// restarts. Jobs move pending -> analyzing -> completed/failed; the daemon's
// dispatcher claims pending jobs transactionally and workers never touch the
// store directly.
package queue
