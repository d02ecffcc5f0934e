package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"soundcheck/internal/analysis"
	"soundcheck/internal/services"
)

// socketConduit is the isolated-worker binding: newline-delimited JSON over a
// stream connection, one request in, a message stream out.
type socketConduit struct {
	conn   net.Conn
	sendMu sync.Mutex
	enc    *json.Encoder
	dec    *json.Decoder
}

// NewSocketConduit wraps an established connection as the worker side of the
// duplex channel.
func NewSocketConduit(conn net.Conn) Conduit {
	return &socketConduit{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

func (s *socketConduit) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.enc.Encode(msg)
}

func (s *socketConduit) Receive(ctx context.Context) (*analysis.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var req analysis.Request
	if err := s.dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		// Anything else on the inbound side is a malformed payload, which is
		// fatal to the request.
		return nil, services.Wrap(services.ErrTransport, "transport", "receive", "malformed request payload", err)
	}
	return &req, nil
}

func (s *socketConduit) Close() error {
	return s.conn.Close()
}

// SocketCaller is the caller-facing side of the socket binding, used by the
// host that spawned an isolated worker.
type SocketCaller struct {
	conn   net.Conn
	sendMu sync.Mutex
	enc    *json.Encoder
	dec    *json.Decoder
}

// NewSocketCaller wraps an established connection as the caller side.
func NewSocketCaller(conn net.Conn) *SocketCaller {
	return &SocketCaller{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

// Submit sends one request to the worker.
func (c *SocketCaller) Submit(ctx context.Context, req *analysis.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.enc.Encode(req)
}

// Next blocks for the worker's next outbound message.
func (c *SocketCaller) Next(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.dec.Decode(&msg); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			return Message{}, io.EOF
		}
		return Message{}, err
	}
	return msg, nil
}

// Close tears down the connection.
func (c *SocketCaller) Close() error {
	return c.conn.Close()
}
