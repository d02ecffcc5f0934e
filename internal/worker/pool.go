package worker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"soundcheck/internal/engine"
	"soundcheck/internal/logging"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/services"
	"soundcheck/internal/stage"
	"soundcheck/internal/transport"
)

// spawnTimeout bounds how long the pool waits for an isolated worker process
// to dial back on its socket.
const spawnTimeout = 10 * time.Second

// PoolConfig describes how the pool hosts its workers.
type PoolConfig struct {
	// Size is the number of worker contexts. Zero means one.
	Size int
	// Isolate runs each worker as a child process attached over a unix
	// socket instead of a goroutine over an in-process pipe.
	Isolate bool
	// Binary is the executable spawned per isolated worker. Required when
	// Isolate is set; typically the daemon's own path.
	Binary string
	// SocketDir holds the per-worker unix sockets for isolated mode.
	SocketDir string
	// Loader builds the engine loader for one named worker context. Nil
	// keeps every worker on the neutral engine.
	Loader func(name string) engine.Loader
	// PipelineOptions apply to every worker's orchestrator.
	PipelineOptions []pipeline.Option
}

// Pool owns a fixed set of workers and checks clients out to callers one job
// at a time.
type Pool struct {
	free    chan Client
	workers []*Worker
	procs   []*exec.Cmd
	sockets []string
	clients []Client
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool starts the configured workers. In-process workers begin serving
// immediately on background goroutines; isolated workers are spawned and must
// dial back before the pool is ready.
func NewPool(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		free:   make(chan Client, size),
		logger: logging.NewComponentLogger(logger, "workerpool"),
	}

	for i := 0; i < size; i++ {
		name := fmt.Sprintf("worker-%d", i)
		var (
			client Client
			err    error
		)
		if cfg.Isolate {
			client, err = p.spawnIsolated(ctx, name, cfg)
		} else {
			client = p.startInProcess(ctx, name, cfg, logger)
		}
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.clients = append(p.clients, client)
		p.free <- client
	}

	p.logger.Info("worker pool ready",
		logging.Int("size", size),
		logging.Bool("isolated", cfg.Isolate))
	return p, nil
}

func (p *Pool) startInProcess(ctx context.Context, name string, cfg PoolConfig, logger *slog.Logger) Client {
	caller, conduit := transport.NewPipe()
	var loader engine.Loader
	if cfg.Loader != nil {
		loader = cfg.Loader(name)
	}
	w := New(name, conduit, loader, logger, cfg.PipelineOptions...)
	p.workers = append(p.workers, w)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := w.Serve(ctx); err != nil {
			p.logger.Error("worker exited", logging.Error(err), logging.String("worker", name))
		}
	}()
	return pipeClient{caller: caller}
}

func (p *Pool) spawnIsolated(ctx context.Context, name string, cfg PoolConfig) (Client, error) {
	if cfg.Binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workerpool", "spawn", "isolated mode requires a worker binary", nil)
	}
	socketPath := filepath.Join(cfg.SocketDir, name+".sock")
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workerpool", "spawn", "listen on worker socket", err)
	}
	defer listener.Close()
	p.sockets = append(p.sockets, socketPath)

	cmd := exec.CommandContext(ctx, cfg.Binary)
	cmd.Env = append(os.Environ(), transport.WorkerSocketEnv+"="+socketPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workerpool", "spawn", "start worker process", err)
	}
	p.procs = append(p.procs, cmd)

	if ul, ok := listener.(*net.UnixListener); ok {
		_ = ul.SetDeadline(time.Now().Add(spawnTimeout))
	}
	conn, err := listener.Accept()
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "workerpool", "spawn", "worker did not attach", err)
	}
	p.logger.Debug("isolated worker attached",
		logging.String("worker", name),
		logging.Int("pid", cmd.Process.Pid))
	return transport.NewSocketCaller(conn), nil
}

// Checkout blocks for a free worker client. Callers must Release it when the
// job's message stream is drained.
func (p *Pool) Checkout(ctx context.Context) (Client, error) {
	select {
	case client := <-p.free:
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a client to the free list.
func (p *Pool) Release(client Client) {
	p.free <- client
}

// Health reports one entry per in-process worker's engine adapter. Isolated
// workers report process liveness instead.
func (p *Pool) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(p.workers)+len(p.procs))
	for _, w := range p.workers {
		checks = append(checks, w.Engines().HealthCheck(ctx))
	}
	for i, cmd := range p.procs {
		name := fmt.Sprintf("worker-%d", i)
		if cmd.ProcessState != nil {
			checks = append(checks, stage.Unhealthy(name, "worker process exited"))
			continue
		}
		checks = append(checks, stage.Healthy(name))
	}
	return checks
}

// Close shuts every worker down and reclaims sockets. In-process workers see
// EOF on their conduits; isolated workers exit when their connection drops.
func (p *Pool) Close() error {
	p.once.Do(func() {
		for _, client := range p.clients {
			_ = client.Close()
		}
		p.wg.Wait()
		for _, cmd := range p.procs {
			_ = cmd.Wait()
		}
		for _, socket := range p.sockets {
			_ = os.Remove(socket)
		}
	})
	return nil
}
