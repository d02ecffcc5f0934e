package transport

import (
	"context"
	"errors"
	"testing"

	"soundcheck/internal/analysis"
)

type recordingConduit struct {
	sent []Message
}

func (r *recordingConduit) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingConduit) Receive(context.Context) (*analysis.Request, error) {
	return nil, nil
}

func (r *recordingConduit) Close() error { return nil }

func TestSessionProgressMonotone(t *testing.T) {
	rec := &recordingConduit{}
	session := NewSession(rec)
	ctx := context.Background()

	for _, v := range []int{15, 45, 30, 75} {
		if err := session.Progress(ctx, v, "phase"); err != nil {
			t.Fatalf("Progress(%d): %v", v, err)
		}
	}

	values := make([]int, 0, len(rec.sent))
	prev := -1
	for _, msg := range rec.sent {
		if msg.Value < prev {
			t.Fatalf("progress decreased: %v", rec.sent)
		}
		prev = msg.Value
		values = append(values, msg.Value)
	}
	// The out-of-order 30 is lifted to the 45 high-water mark.
	if values[2] != 45 {
		t.Fatalf("expected lifted value 45, got %v", values)
	}
}

func TestSessionResultPrecededByTerminalProgress(t *testing.T) {
	rec := &recordingConduit{}
	session := NewSession(rec)
	ctx := context.Background()

	if err := session.Progress(ctx, 95, "assembly"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if err := session.Result(ctx, ResultOf(&analysis.Result{})); err != nil {
		t.Fatalf("Result: %v", err)
	}

	n := len(rec.sent)
	if n < 2 {
		t.Fatalf("too few messages: %v", rec.sent)
	}
	last, beforeLast := rec.sent[n-1], rec.sent[n-2]
	if last.Type != TypeResult {
		t.Fatalf("last message = %q, want result", last.Type)
	}
	if beforeLast.Type != TypeProgress || beforeLast.Value != 100 {
		t.Fatalf("result not preceded by progress 100: %+v", beforeLast)
	}
}

func TestSessionNothingAfterTerminal(t *testing.T) {
	rec := &recordingConduit{}
	session := NewSession(rec)
	ctx := context.Background()

	if err := session.Result(ctx, ResultOf(&analysis.Result{})); err != nil {
		t.Fatalf("Result: %v", err)
	}
	sentAfterResult := len(rec.sent)

	if err := session.Progress(ctx, 50, "late"); !errors.Is(err, ErrTerminated) {
		t.Fatalf("Progress after terminal = %v, want ErrTerminated", err)
	}
	if err := session.Error(ctx, "late"); !errors.Is(err, ErrTerminated) {
		t.Fatalf("Error after terminal = %v, want ErrTerminated", err)
	}
	if err := session.Result(ctx, ResultOf(&analysis.Result{})); !errors.Is(err, ErrTerminated) {
		t.Fatalf("second Result = %v, want ErrTerminated", err)
	}
	if len(rec.sent) != sentAfterResult {
		t.Fatalf("messages sent after terminal: %v", rec.sent)
	}
}

func TestSessionErrorIsTerminalWithoutProgress(t *testing.T) {
	rec := &recordingConduit{}
	session := NewSession(rec)

	if err := session.Error(context.Background(), "malformed request"); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0].Type != TypeError {
		t.Fatalf("unexpected messages: %v", rec.sent)
	}
}

func TestSessionClampsRange(t *testing.T) {
	rec := &recordingConduit{}
	session := NewSession(rec)
	ctx := context.Background()

	if err := session.Progress(ctx, -5, "early"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if err := session.Progress(ctx, 150, "late"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if rec.sent[0].Value != 0 || rec.sent[1].Value != 100 {
		t.Fatalf("values not clamped: %v", rec.sent)
	}
}
