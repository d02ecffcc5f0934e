// Package main hosts the soundcheck CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, queue maintenance operations, and configuration
// scaffolding. Queue commands fall back to direct store access when the
// daemon is offline so inspection and cleanup never require a running
// process.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
