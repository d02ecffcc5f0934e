package transport

import (
	"context"
	"errors"
	"sync"
)

// ErrTerminated is returned when a send is attempted after the session's
// terminal message.
var ErrTerminated = errors.New("transport session already terminated")

// Session enforces the per-request wire invariants on top of a Conduit:
// progress values are monotone non-decreasing, the terminal result is always
// preceded by progress 100, and nothing follows the first terminal message.
type Session struct {
	mu       sync.Mutex
	conduit  Conduit
	last     int
	terminal bool
}

// NewSession starts a fresh invariant window for one request.
func NewSession(conduit Conduit) *Session {
	return &Session{conduit: conduit}
}

// Progress emits a progress event. Values below the high-water mark are
// lifted to it so the stream never decreases.
func (s *Session) Progress(ctx context.Context, value int, phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return ErrTerminated
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	if value < s.last {
		value = s.last
	}
	s.last = value
	return s.conduit.Send(ctx, Progress(value, phase))
}

// Result emits the terminal success sequence: progress 100 (when not already
// reported) followed by the result itself.
func (s *Session) Result(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return ErrTerminated
	}
	if s.last < 100 {
		if err := s.conduit.Send(ctx, Progress(100, "complete")); err != nil {
			return err
		}
		s.last = 100
	}
	s.terminal = true
	return s.conduit.Send(ctx, msg)
}

// Error emits the terminal error message in place of a result.
func (s *Session) Error(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return ErrTerminated
	}
	s.terminal = true
	return s.conduit.Send(ctx, ErrorOf(message))
}
