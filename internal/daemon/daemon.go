package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"soundcheck/internal/config"
	"soundcheck/internal/engine"
	"soundcheck/internal/engine/extproc"
	"soundcheck/internal/logging"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/queue"
	"soundcheck/internal/stage"
	"soundcheck/internal/worker"
)

// Daemon coordinates the worker pool and the job dispatcher, and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	pool   *worker.Pool

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lastError atomic.Value // string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	QueueStats   map[queue.Status]int
	WorkerHealth []stage.Health
	LastError    string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "soundcheckd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, spins up the worker pool, and launches the
// dispatcher.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another soundcheck daemon instance is already running")
	}

	// Jobs stranded in analyzing by an unclean shutdown go back to pending.
	if reset, err := d.store.ResetStuckAnalyzing(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reset stuck jobs: %w", err)
	} else if reset > 0 {
		d.logger.Info("reset stuck jobs from previous run", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	pool, err := worker.NewPool(runCtx, d.poolConfig(), d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker pool: %w", err)
	}

	d.cancel = cancel
	d.pool = pool
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(runCtx)
	}()

	d.logger.Info("soundcheck daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.cfg.Workers.Count),
		logging.Bool("isolated", d.cfg.Workers.Isolate))
	return nil
}

// PipelineOptions converts configured tuning values into orchestrator options.
// Shared with isolated worker processes, which build their own orchestrators.
func PipelineOptions(cfg *config.Config) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithHybridThreshold(cfg.Workers.HybridThreshold),
		pipeline.WithPhaseBudget(pipeline.PhaseLoudness, cfg.Timeouts.LoudnessBudget()),
		pipeline.WithPhaseBudget(pipeline.PhaseStereo, cfg.Timeouts.StereoBudget()),
		pipeline.WithPhaseBudget(pipeline.PhaseTechnical, cfg.Timeouts.TechnicalBudget()),
		pipeline.WithPhaseBudget(pipeline.PhaseTempo, cfg.Timeouts.TempoBudget()),
	}
}

func (d *Daemon) poolConfig() worker.PoolConfig {
	cfg := worker.PoolConfig{
		Size:            d.cfg.Workers.Count,
		Isolate:         d.cfg.Workers.Isolate,
		SocketDir:       d.cfg.Paths.WorkerSocketDir,
		PipelineOptions: PipelineOptions(d.cfg),
	}
	if binary := d.cfg.Engine.Binary; binary != "" {
		cfg.Loader = func(string) engine.Loader {
			return extproc.Loader(binary, d.logger)
		}
	}
	if cfg.Isolate {
		if executable, err := os.Executable(); err == nil {
			cfg.Binary = executable
		}
	}
	return cfg
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if d.pool != nil {
		_ = d.pool.Close()
		d.pool = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("soundcheck daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Enqueue adds a pending analysis job for a raw sample file.
func (d *Daemon) Enqueue(ctx context.Context, sourcePath string, sampleRate, channels int, knownTempo float64) (*queue.Job, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}
	absPath, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	job, err := d.store.Add(ctx, absPath, sampleRate, channels, knownTempo)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	d.logger.Info("job queued",
		logging.Int64("job_id", job.ID),
		logging.String("source", absPath),
		logging.String(logging.FieldEventType, "job_queued"))
	return job, nil
}

// ListQueue returns jobs filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	if len(statuses) == 0 {
		return d.store.List(ctx)
	}
	return d.store.List(ctx, statuses...)
}

// GetJob returns a single job by identifier.
func (d *Daemon) GetJob(ctx context.Context, id int64) (*queue.Job, error) {
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all jobs.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes only completed jobs.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes only failed jobs.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// ResetStuck transitions in-flight jobs back to pending for retry.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuckAnalyzing(ctx)
}

// RetryFailed resets failed jobs (optionally a subset) back to pending.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	return d.store.RetryFailed(ctx, ids...)
}

// QueueHealth returns aggregate queue diagnostics.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.cfg.Paths.DatabasePath,
		LockFilePath: d.lockPath,
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.QueueStats = stats
	}
	d.mu.Lock()
	pool := d.pool
	d.mu.Unlock()
	if pool != nil {
		status.WorkerHealth = pool.Health(ctx)
	}
	if v, ok := d.lastError.Load().(string); ok {
		status.LastError = v
	}
	return status
}
