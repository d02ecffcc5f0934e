// Package analysis defines the request and result types exchanged between
// callers, the pipeline orchestrator, and the transport bindings.
package analysis
