package worker

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/engine"
	"soundcheck/internal/transport"
)

func validRequest() *analysis.Request {
	return &analysis.Request{
		Samples:    make([]float32, 44100),
		SampleRate: 44100,
	}
}

func TestWorkerServesRequestOverPipe(t *testing.T) {
	caller, conduit := transport.NewPipe()
	w := New("worker-0", conduit, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	var percents []int
	result, err := Analyze(ctx, pipeClient{caller: caller}, validRequest(), func(percent int, _ string) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Loudness.Integrated != engine.NeutralIntegratedLUFS {
		t.Errorf("Integrated = %v, want neutral", result.Loudness.Integrated)
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Errorf("progress = %v, want trailing 100", percents)
	}

	caller.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not exit after caller close")
	}
}

func TestWorkerRejectsInvalidRequestAndKeepsServing(t *testing.T) {
	caller, conduit := transport.NewPipe()
	w := New("worker-0", conduit, nil, nil)
	ctx := context.Background()
	go func() { _ = w.Serve(ctx) }()
	defer caller.Close()

	client := pipeClient{caller: caller}
	if _, err := Analyze(ctx, client, &analysis.Request{}, nil); err == nil {
		t.Fatal("empty request must yield a terminal error")
	}

	// The worker must survive the rejection and serve the next request.
	if _, err := Analyze(ctx, client, validRequest(), nil); err != nil {
		t.Fatalf("Analyze after rejection: %v", err)
	}
}

func TestWorkerMalformedPayloadOverSocket(t *testing.T) {
	callerConn, workerConn := net.Pipe()
	w := New("worker-0", transport.NewSocketConduit(workerConn), nil, nil)
	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()
	defer callerConn.Close()

	if _, err := callerConn.Write([]byte("{broken\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	caller := transport.NewSocketCaller(callerConn)
	msg, err := caller.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if msg.Type != transport.TypeError {
		t.Fatalf("message type = %q, want error", msg.Type)
	}
	if !strings.Contains(msg.Message, "malformed") {
		t.Errorf("error message %q does not name the malformation", msg.Message)
	}

	// Framing is unrecoverable after a syntax error, so the worker closes.
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Serve returned nil, want transport error")
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not exit after malformed payload")
	}
}

func TestPoolCheckoutReleaseCycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := NewPool(ctx, PoolConfig{Size: 2}, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	first, err := pool.Checkout(ctx)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	second, err := pool.Checkout(ctx)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// Both workers are busy: a third checkout must block until release.
	blocked, blockedCancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer blockedCancel()
	if _, err := pool.Checkout(blocked); err == nil {
		t.Fatal("third checkout should block while all workers are out")
	}

	pool.Release(first)
	third, err := pool.Checkout(ctx)
	if err != nil {
		t.Fatalf("Checkout after release: %v", err)
	}

	if _, err := Analyze(ctx, third, validRequest(), nil); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	pool.Release(third)
	pool.Release(second)
}

func TestPoolHealthReportsPerWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := NewPool(ctx, PoolConfig{Size: 3}, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer pool.Close()

	checks := pool.Health(ctx)
	if len(checks) != 3 {
		t.Fatalf("health entries = %d, want 3", len(checks))
	}
}
