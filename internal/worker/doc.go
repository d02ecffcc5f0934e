// Package worker hosts analysis worker contexts. Each worker owns one engine
// adapter and one pipeline orchestrator, serves requests off its transport
// conduit, and speaks the progress/result/error protocol back to the caller.
// The pool decides how workers are hosted: background goroutines over
// in-process pipes, or isolated child processes over unix sockets.
package worker
