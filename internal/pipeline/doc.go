// Package pipeline drives a multi-phase, time-bounded, partially-failable
// analysis run. The central policy: the required loudness phase degrades to
// neutral values rather than aborting, optional phases are omitted rather
// than fabricated, and only a malformed inbound request aborts the run.
package pipeline
