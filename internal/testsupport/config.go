package testsupport

import (
	"path/filepath"
	"testing"

	"soundcheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "soundcheck.sock")
	cfg.Paths.DatabasePath = filepath.Join(base, "data", "queue.db")
	cfg.Paths.WorkerSocketDir = filepath.Join(base, "workers")
	cfg.Workers.Count = 1
	cfg.Daemon.QueuePollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithWorkerCount overrides the worker pool size on the test config.
func WithWorkerCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Count = count
	}
}

// WithEngineBinary points the test config at an engine executable.
func WithEngineBinary(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Binary = path
	}
}
