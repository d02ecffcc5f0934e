package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"soundcheck/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "soundcheck")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Workers.Count != 2 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Workers.Isolate {
		t.Fatal("expected isolation disabled by default")
	}
	if cfg.Engine.Binary != "" {
		t.Fatalf("expected empty engine binary by default, got %q", cfg.Engine.Binary)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.WorkerSocketDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "soundcheck.toml")

	type payload struct {
		Engine struct {
			Binary string `toml:"binary"`
		} `toml:"engine"`
		Workers struct {
			Count           int     `toml:"count"`
			HybridThreshold float64 `toml:"hybrid_threshold"`
		} `toml:"workers"`
		Timeouts struct {
			StereoSeconds int `toml:"stereo_seconds"`
		} `toml:"timeouts"`
	}
	custom := payload{}
	custom.Engine.Binary = "/usr/local/bin/audio-engine"
	custom.Workers.Count = 4
	custom.Workers.HybridThreshold = 0.6
	custom.Timeouts.StereoSeconds = 25
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Engine.Binary != "/usr/local/bin/audio-engine" {
		t.Fatalf("unexpected engine binary: %q", cfg.Engine.Binary)
	}
	if cfg.Workers.Count != 4 {
		t.Fatalf("unexpected worker count: %d", cfg.Workers.Count)
	}
	if cfg.Workers.HybridThreshold != 0.6 {
		t.Fatalf("unexpected hybrid threshold: %v", cfg.Workers.HybridThreshold)
	}
	if cfg.Timeouts.StereoSeconds != 25 {
		t.Fatalf("unexpected stereo timeout: %d", cfg.Timeouts.StereoSeconds)
	}
	// Unset sections keep their defaults.
	if cfg.Timeouts.LoudnessCeiling != config.Default().Timeouts.LoudnessCeiling {
		t.Fatalf("unexpected loudness ceiling: %d", cfg.Timeouts.LoudnessCeiling)
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "soundcheck.toml")
	if err := os.WriteFile(configPath, []byte("[engine]\nbinary = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SOUNDCHECK_ENGINE_BINARY", "/opt/engine")
	t.Setenv("SOUNDCHECK_LOG_LEVEL", "debug")
	t.Setenv("SOUNDCHECK_WORKER_COUNT", "8")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.Binary != "/opt/engine" {
		t.Errorf("expected engine binary from env, got %q", cfg.Engine.Binary)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
	if cfg.Workers.Count != 8 {
		t.Errorf("expected worker count from env, got %d", cfg.Workers.Count)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "hybrid_threshold") {
		t.Fatalf("sample config missing workers section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Timeouts.StereoSeconds != 10 {
		t.Fatalf("sample stereo timeout = %d, want 10", cfg.Timeouts.StereoSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.HybridThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}

	cfg = config.Default()
	cfg.Timeouts.StereoSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Timeouts.LoudnessCeiling = 5
	cfg.Timeouts.LoudnessFloor = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when ceiling < floor")
	}

	cfg = config.Default()
	cfg.Daemon.QueuePollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive poll interval")
	}
}

func TestTimeoutBudgets(t *testing.T) {
	timeouts := config.Default().Timeouts

	if got := timeouts.StereoBudget().For(time.Hour); got != 10*time.Second {
		t.Errorf("stereo budget = %v, want fixed 10s", got)
	}
	if got := timeouts.LoudnessBudget().For(2 * time.Second); got != 30*time.Second {
		t.Errorf("loudness budget for short input = %v, want floor 30s", got)
	}
	if got := timeouts.LoudnessBudget().For(time.Hour); got != 300*time.Second {
		t.Errorf("loudness budget for long input = %v, want ceiling 300s", got)
	}
	if got := timeouts.LoudnessBudget().For(60 * time.Second); got != 300*time.Second {
		t.Errorf("loudness budget for 60s input = %v, want 300s", got)
	}
	if got := timeouts.TechnicalBudget().For(20 * time.Second); got != 60*time.Second {
		t.Errorf("technical budget for 20s input = %v, want 60s", got)
	}
}
