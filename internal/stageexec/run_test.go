package stageexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"soundcheck/internal/services"
	"soundcheck/internal/stage"
)

func TestRunSuccess(t *testing.T) {
	result := Run(context.Background(), "loudness", time.Second, func(context.Context) (int, error) {
		return 42, nil
	})
	if result.Outcome != stage.OutcomeSuccess {
		t.Fatalf("Outcome = %v, want success", result.Outcome)
	}
	if result.Value != 42 {
		t.Fatalf("Value = %d, want 42", result.Value)
	}
}

func TestRunNormalizesEngineError(t *testing.T) {
	cause := errors.New("analyzer crashed")
	result := Run(context.Background(), "loudness", time.Second, func(context.Context) (int, error) {
		return 0, cause
	})
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", result.Outcome)
	}
	if !errors.Is(result.Err, services.ErrEngine) {
		t.Fatalf("Err = %v, want ErrEngine", result.Err)
	}
	if !errors.Is(result.Err, cause) {
		t.Fatalf("Err = %v, want wrapped cause", result.Err)
	}
}

func TestRunTimeout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	result := Run(context.Background(), "stereo", 20*time.Millisecond, func(context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	<-started
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", result.Outcome)
	}
	if !errors.Is(result.Err, services.ErrTimeout) {
		t.Fatalf("Err = %v, want ErrTimeout", result.Err)
	}
}

func TestRunTimeoutDoesNotBlockAbandonedCall(t *testing.T) {
	finished := make(chan struct{})
	Run(context.Background(), "technical", 10*time.Millisecond, func(context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		close(finished)
		return 1, nil
	})
	// The abandoned call must be able to complete and hand off its discarded
	// result without anyone reading the channel.
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned operation never finished")
	}
}

func TestRunObservesParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Run(ctx, "loudness", time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if result.Outcome != stage.OutcomeFailed {
		t.Fatalf("Outcome = %v, want failed", result.Outcome)
	}
}
