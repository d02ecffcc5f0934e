// Package daemonrun boots the soundcheck daemon process: logging, the queue
// store, the IPC server, and signal-driven shutdown. It also hosts the
// isolated worker entrypoint selected when a worker socket is present in the
// environment.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"soundcheck/internal/config"
	"soundcheck/internal/daemon"
	"soundcheck/internal/engine"
	"soundcheck/internal/engine/extproc"
	"soundcheck/internal/ipc"
	"soundcheck/internal/logging"
	"soundcheck/internal/pipeline"
	"soundcheck/internal/queue"
	"soundcheck/internal/services"
	"soundcheck/internal/transport"
	"soundcheck/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the soundcheck daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("soundcheck-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update soundcheck.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "soundcheck-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "soundcheckd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"))
		return err
	}

	<-signalCtx.Done()
	logger.Info("soundcheck daemon shutting down")
	return nil
}

// RunWorker attaches to the host socket named in the environment and serves
// analysis requests until the conduit closes. Returns false without error
// when no worker socket is present, meaning the caller should proceed as the
// daemon process.
func RunWorker(cmdCtx context.Context, cfg *config.Config, opts Options) (bool, error) {
	level := opts.LogLevel
	if cfg != nil && level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      "json",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return false, fmt.Errorf("init worker logger: %w", err)
	}

	conduit, isolated, err := transport.Detect(logger)
	if err != nil {
		return false, err
	}
	if !isolated {
		return false, nil
	}
	defer conduit.Close()

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	name := fmt.Sprintf("worker-%d", os.Getpid())
	w := worker.New(name, conduit, workerLoader(cfg, logger), logger, workerOptions(cfg)...)
	serveCtx := services.WithWorker(signalCtx, name)
	if err := w.Serve(serveCtx); err != nil {
		return true, fmt.Errorf("worker serve: %w", err)
	}
	return true, nil
}

func workerLoader(cfg *config.Config, logger *slog.Logger) engine.Loader {
	if cfg == nil || cfg.Engine.Binary == "" {
		return nil
	}
	return extproc.Loader(cfg.Engine.Binary, logger)
}

func workerOptions(cfg *config.Config) []pipeline.Option {
	if cfg == nil {
		return nil
	}
	return daemon.PipelineOptions(cfg)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "soundcheck.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
