package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"soundcheck/internal/logging"
	"soundcheck/internal/stage"
)

// Loader attempts to initialize the real analysis engine. The first call may
// take non-trivial wall-clock time (binary load, capability probe).
type Loader func(ctx context.Context) (Handle, error)

type acquireState int

const (
	// stateUnattempted means no acquisition has been tried yet.
	stateUnattempted acquireState = iota
	// stateAcquired means the real engine loaded and is cached.
	stateAcquired
	// stateFallback means acquisition failed once and the neutral engine is
	// cached; the real engine is never re-attempted.
	stateFallback
)

// Adapter lazily acquires the engine handle exactly once per worker context
// and memoizes the outcome, including failure. Acquire never errors: when the
// real engine cannot be initialized the neutral engine stands in so the
// required stage always has a result.
type Adapter struct {
	mu     sync.Mutex
	state  acquireState
	handle Handle
	loader Loader
	logger *slog.Logger
}

// NewAdapter wires a loader for the real engine. A nil loader goes straight
// to the neutral engine on first acquire.
func NewAdapter(loader Loader, logger *slog.Logger) *Adapter {
	return &Adapter{
		loader: loader,
		logger: logging.NewComponentLogger(logger, "engine"),
	}
}

// Acquire returns the cached handle, initializing it on first use.
func (a *Adapter) Acquire(ctx context.Context) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateUnattempted {
		return a.handle
	}

	if a.loader == nil {
		a.state = stateFallback
		a.handle = Neutral{}
		a.logger.Warn("no engine loader configured; using neutral engine",
			logging.String(logging.FieldEventType, "engine_fallback"))
		return a.handle
	}

	start := time.Now()
	handle, err := a.loader(ctx)
	if err != nil || handle == nil {
		a.state = stateFallback
		a.handle = Neutral{}
		a.logger.Warn("engine initialization failed; using neutral engine",
			logging.Error(err),
			logging.Duration("attempt_duration", time.Since(start)),
			logging.String(logging.FieldEventType, "engine_fallback"))
		return a.handle
	}

	a.state = stateAcquired
	a.handle = handle
	a.logger.Info("engine acquired",
		logging.String("engine", handle.Name()),
		logging.Duration("load_duration", time.Since(start)),
		logging.String(logging.FieldEventType, "engine_acquired"))
	return a.handle
}

// Degraded reports whether the adapter fell back to the neutral engine.
func (a *Adapter) Degraded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateFallback
}

// HealthCheck reports the adapter's acquisition state for daemon status.
func (a *Adapter) HealthCheck(context.Context) stage.Health {
	const name = "engine"
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case stateAcquired:
		return stage.Healthy(name)
	case stateFallback:
		return stage.Unhealthy(name, "neutral engine in use")
	default:
		return stage.Healthy(name)
	}
}
