package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir         string `toml:"data_dir"`
	LogDir          string `toml:"log_dir"`
	SocketPath      string `toml:"socket_path"`
	DatabasePath    string `toml:"database_path"`
	WorkerSocketDir string `toml:"worker_socket_dir"`
}

// Engine contains configuration for the external analysis engine.
type Engine struct {
	// Binary is the engine executable. Empty keeps workers on the neutral
	// fallback engine.
	Binary string `toml:"binary"`
	// LoadTimeout bounds engine initialization in seconds.
	LoadTimeout int `toml:"load_timeout"`
}

// Workers contains configuration for worker hosting.
type Workers struct {
	Count int `toml:"count"`
	// Isolate runs each worker as a child process over a unix socket
	// instead of a goroutine inside the daemon.
	Isolate bool `toml:"isolate"`
	// HybridThreshold gates the secondary tempo method.
	HybridThreshold float64 `toml:"hybrid_threshold"`
}

// Timeouts contains the per-phase analysis deadlines. Scaled phases compute
// floor + per_audio_second * duration, clamped to the ceiling; fixed phases
// use a flat seconds value.
type Timeouts struct {
	LoudnessFloor          int     `toml:"loudness_floor_seconds"`
	LoudnessCeiling        int     `toml:"loudness_ceiling_seconds"`
	LoudnessPerAudioSecond float64 `toml:"loudness_per_audio_second"`

	StereoSeconds int `toml:"stereo_seconds"`

	TechnicalFloor          int     `toml:"technical_floor_seconds"`
	TechnicalCeiling        int     `toml:"technical_ceiling_seconds"`
	TechnicalPerAudioSecond float64 `toml:"technical_per_audio_second"`

	TempoSeconds int `toml:"tempo_seconds"`
}

// Daemon contains configuration for dispatch timing.
type Daemon struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for soundcheck.
//
// Configuration sections by subsystem:
//   - Paths: data directory, queue database, and socket locations
//   - Engine: external analysis engine binary and load timeout
//   - Workers: worker count, isolation mode, and tempo threshold
//   - Timeouts: per-phase analysis deadlines
//   - Daemon: queue polling intervals
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Engine   Engine   `toml:"engine"`
	Workers  Workers  `toml:"workers"`
	Timeouts Timeouts `toml:"timeouts"`
	Daemon   Daemon   `toml:"daemon"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundcheck/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A .env file in the
// working directory is applied first so file-less deployments can configure
// through the environment alone.
func Load(path string) (*Config, string, bool, error) {
	// Best-effort: absence of a .env file is the common case.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundcheck.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at startup.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.Paths.WorkerSocketDir,
		filepath.Dir(c.Paths.DatabasePath),
		filepath.Dir(c.Paths.SocketPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
