package transport

import (
	"context"
	"io"
	"sync"

	"soundcheck/internal/analysis"
)

// PipeCaller is the caller-facing half of the in-process binding: caller and
// worker share channels inside one process, the host shape used when workers
// run as background goroutines. Callers read Messages until the terminal
// message for each submitted request.
type PipeCaller struct {
	requests  chan *analysis.Request
	messages  chan Message
	closeOnce sync.Once
}

// NewPipe creates a connected caller/worker pair.
func NewPipe() (*PipeCaller, Conduit) {
	caller := &PipeCaller{
		requests: make(chan *analysis.Request),
		messages: make(chan Message, 16),
	}
	conduit := &pipeConduit{
		caller: caller,
		done:   make(chan struct{}),
	}
	return caller, conduit
}

// Submit hands one request to the worker side.
func (p *PipeCaller) Submit(ctx context.Context, req *analysis.Request) error {
	select {
	case p.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages exposes the ordered outbound stream.
func (p *PipeCaller) Messages() <-chan Message {
	return p.messages
}

// Close signals the worker that no further requests will arrive.
func (p *PipeCaller) Close() {
	p.closeOnce.Do(func() { close(p.requests) })
}

type pipeConduit struct {
	caller    *PipeCaller
	done      chan struct{}
	closeOnce sync.Once
}

func (c *pipeConduit) Send(ctx context.Context, msg Message) error {
	select {
	case <-c.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case c.caller.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func (c *pipeConduit) Receive(ctx context.Context) (*analysis.Request, error) {
	select {
	case req, ok := <-c.caller.requests:
		if !ok {
			return nil, io.EOF
		}
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *pipeConduit) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}
