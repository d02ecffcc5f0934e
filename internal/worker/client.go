package worker

import (
	"context"
	"fmt"

	"soundcheck/internal/analysis"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/services"
	"soundcheck/internal/transport"
)

// Client is the caller-facing handle to one hosted worker, independent of the
// binding underneath.
type Client interface {
	// Submit hands one request to the worker.
	Submit(ctx context.Context, req *analysis.Request) error
	// Next blocks for the worker's next outbound message.
	Next(ctx context.Context) (transport.Message, error)
	// Close tears down the caller side; the worker's Serve loop exits.
	Close() error
}

// pipeClient adapts the in-process pipe caller to the Client shape.
type pipeClient struct {
	caller *transport.PipeCaller
}

func (c pipeClient) Submit(ctx context.Context, req *analysis.Request) error {
	return c.caller.Submit(ctx, req)
}

func (c pipeClient) Next(ctx context.Context) (transport.Message, error) {
	select {
	case msg := <-c.caller.Messages():
		return msg, nil
	case <-ctx.Done():
		return transport.Message{}, ctx.Err()
	}
}

func (c pipeClient) Close() error {
	c.caller.Close()
	return nil
}

// Analyze submits one request and drains the message stream until the
// terminal message, forwarding progress events along the way.
func Analyze(ctx context.Context, client Client, req *analysis.Request, progress pipeline.ProgressFunc) (*analysis.Result, error) {
	if err := client.Submit(ctx, req); err != nil {
		return nil, services.Wrap(services.ErrTransport, "worker", "submit", "request submission failed", err)
	}
	for {
		msg, err := client.Next(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "worker", "receive", "message stream interrupted", err)
		}
		switch msg.Type {
		case transport.TypeProgress:
			if progress != nil {
				progress(msg.Value, msg.Phase)
			}
		case transport.TypeResult:
			return msg.Data, nil
		case transport.TypeError:
			return nil, fmt.Errorf("analysis failed: %s", msg.Message)
		default:
			return nil, services.Wrap(services.ErrTransport, "worker", "receive", fmt.Sprintf("unknown message type %q", msg.Type), nil)
		}
	}
}
