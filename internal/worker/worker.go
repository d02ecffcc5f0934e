package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"soundcheck/internal/analysis"
	"soundcheck/internal/engine"
	"soundcheck/internal/logging"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/services"
	"soundcheck/internal/transport"
)

// Worker binds one engine adapter and one orchestrator to a conduit and
// serves requests sequentially until the caller side closes.
type Worker struct {
	name    string
	conduit transport.Conduit
	engines *engine.Adapter
	orch    *pipeline.Orchestrator
	logger  *slog.Logger
}

// New builds a worker around an established conduit. The engine loader is
// per-worker: each worker context acquires (or falls back) independently.
func New(name string, conduit transport.Conduit, loader engine.Loader, logger *slog.Logger, opts ...pipeline.Option) *Worker {
	engines := engine.NewAdapter(loader, logger)
	return &Worker{
		name:    name,
		conduit: conduit,
		engines: engines,
		orch:    pipeline.New(engines, logger, opts...),
		logger:  logging.NewComponentLogger(logger, "worker"),
	}
}

// Engines exposes the worker's adapter for health reporting.
func (w *Worker) Engines() *engine.Adapter {
	return w.engines
}

// Serve processes requests until the conduit reports EOF. A malformed inbound
// payload is answered with a terminal error message and then closes the
// conduit: once the stream framing is lost there is no safe way to find the
// next request boundary.
func (w *Worker) Serve(ctx context.Context) error {
	ctx = services.WithWorker(ctx, w.name)
	for {
		req, err := w.conduit.Receive(ctx)
		switch {
		case errors.Is(err, io.EOF):
			w.logger.Debug("caller closed; worker exiting", logging.String("worker", w.name))
			return nil
		case errors.Is(err, services.ErrTransport):
			w.logger.Error("malformed request payload",
				logging.Error(err),
				logging.String("worker", w.name),
				logging.String(logging.FieldEventType, "request_rejected"))
			session := transport.NewSession(w.conduit)
			_ = session.Error(ctx, err.Error())
			_ = w.conduit.Close()
			return err
		case err != nil:
			return err
		}
		w.handle(ctx, req)
	}
}

func (w *Worker) handle(ctx context.Context, req *analysis.Request) {
	session := transport.NewSession(w.conduit)
	result, err := w.orch.Run(ctx, req, func(percent int, phase string) {
		_ = session.Progress(ctx, percent, phase)
	})
	if err != nil {
		w.logger.Error("request rejected",
			logging.Error(err),
			logging.String("worker", w.name),
			logging.String(logging.FieldEventType, "request_rejected"))
		_ = session.Error(ctx, err.Error())
		return
	}
	_ = session.Result(ctx, transport.ResultOf(result))
}
