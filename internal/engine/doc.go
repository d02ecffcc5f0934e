// Package engine defines the capability surface of the external analysis
// engine and the adapter that acquires a handle to it once per worker
// context, falling back to a neutral stand-in when acquisition fails.
//
// The engine's signal-processing internals are opaque to this repository;
// the subprocess client in the extproc subpackage only moves samples in and
// measurements out.
package engine
