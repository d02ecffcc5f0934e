package stageexec

import (
	"context"
	"time"

	"soundcheck/internal/services"
	"soundcheck/internal/stage"
)

// Run executes one analysis operation with a hard wait deadline, normalizing
// "engine returned an error" and "engine too slow" into a Failed result.
//
// On timeout the in-flight call is not interrupted: the executor stops
// waiting, the goroutine finishes on its own schedule, and its result is
// discarded through the buffered channel. Parent-context cancellation is the
// only cooperative cancellation path and also surfaces as Failed.
//
// Run never retries; fallback policy belongs to the orchestrator per stage.
func Run[T any](ctx context.Context, name string, timeout time.Duration, op func(context.Context) (T, error)) stage.Result[T] {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		value, err := op(ctx)
		done <- outcome{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return stage.Failed[T](services.Wrap(services.ErrEngine, name, "execute", "", out.err))
		}
		return stage.Success(out.value)
	case <-timer.C:
		return stage.Failed[T](services.Wrap(services.ErrTimeout, name, "execute", timeout.String(), nil))
	case <-ctx.Done():
		return stage.Failed[T](services.Wrap(services.ErrTransient, name, "execute", "canceled", ctx.Err()))
	}
}
