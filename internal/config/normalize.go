package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeWorkers()
	c.normalizeTimeouts()
	c.normalizeDaemon()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkerSocketDir) == "" {
		c.Paths.WorkerSocketDir = defaultWorkerSocketDir
	}
	if c.Paths.WorkerSocketDir, err = expandPath(c.Paths.WorkerSocketDir); err != nil {
		return fmt.Errorf("paths.worker_socket_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary == "" {
		if value, ok := os.LookupEnv("SOUNDCHECK_ENGINE_BINARY"); ok {
			c.Engine.Binary = strings.TrimSpace(value)
		}
	}
	if c.Engine.LoadTimeout <= 0 {
		c.Engine.LoadTimeout = defaultEngineLoadTimeout
	}
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount
	}
	if value, ok := os.LookupEnv("SOUNDCHECK_WORKER_COUNT"); ok {
		if count, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && count > 0 {
			c.Workers.Count = count
		}
	}
	if c.Workers.HybridThreshold <= 0 {
		c.Workers.HybridThreshold = defaultHybridThreshold
	}
}

func (c *Config) normalizeTimeouts() {
	t := &c.Timeouts
	if t.LoudnessFloor <= 0 {
		t.LoudnessFloor = defaultLoudnessFloor
	}
	if t.LoudnessCeiling <= 0 {
		t.LoudnessCeiling = defaultLoudnessCeiling
	}
	if t.LoudnessPerAudioSecond <= 0 {
		t.LoudnessPerAudioSecond = defaultLoudnessPerAudioSecond
	}
	if t.StereoSeconds <= 0 {
		t.StereoSeconds = defaultStereoSeconds
	}
	if t.TechnicalFloor <= 0 {
		t.TechnicalFloor = defaultTechnicalFloor
	}
	if t.TechnicalCeiling <= 0 {
		t.TechnicalCeiling = defaultTechnicalCeiling
	}
	if t.TechnicalPerAudioSecond <= 0 {
		t.TechnicalPerAudioSecond = defaultTechnicalPerAudioSecond
	}
	if t.TempoSeconds <= 0 {
		t.TempoSeconds = defaultTempoSeconds
	}
}

func (c *Config) normalizeDaemon() {
	if c.Daemon.QueuePollInterval <= 0 {
		c.Daemon.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Daemon.ErrorRetryInterval <= 0 {
		c.Daemon.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if value, ok := os.LookupEnv("SOUNDCHECK_LOG_LEVEL"); ok {
		if level := strings.ToLower(strings.TrimSpace(value)); level != "" {
			c.Logging.Level = level
		}
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
