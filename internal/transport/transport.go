// Package transport abstracts the duplex channel between a caller and one
// analysis worker context, so the orchestrator runs unmodified whether the
// worker is an in-process goroutine or an isolated child process.
package transport

import (
	"context"

	"soundcheck/internal/analysis"
)

// Message kinds on the outbound wire.
const (
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeError    = "error"
)

// Message is one outbound event. Exactly one terminal message (result or
// error) is emitted per request.
type Message struct {
	Type    string           `json:"type"`
	Value   int              `json:"value,omitempty"`
	Phase   string           `json:"phase,omitempty"`
	Data    *analysis.Result `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Progress builds a progress event for the given phase.
func Progress(value int, phase string) Message {
	return Message{Type: TypeProgress, Value: value, Phase: phase}
}

// ResultOf builds the terminal success message.
func ResultOf(result *analysis.Result) Message {
	return Message{Type: TypeResult, Data: result}
}

// ErrorOf builds the terminal error message.
func ErrorOf(message string) Message {
	return Message{Type: TypeError, Message: message}
}

// Terminal reports whether the message ends its request.
func (m Message) Terminal() bool {
	return m.Type == TypeResult || m.Type == TypeError
}

// Conduit is the worker-facing side of the duplex channel. Implementations
// must deliver messages in send order.
type Conduit interface {
	// Send delivers one outbound message to the caller.
	Send(ctx context.Context, msg Message) error
	// Receive blocks for the next inbound request. It returns io.EOF once
	// the caller side closes, and an error wrapping services.ErrTransport
	// for a malformed payload.
	Receive(ctx context.Context) (*analysis.Request, error)
	// Close releases the channel. Pending Receive calls unblock.
	Close() error
}
