package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	if c.Workers.HybridThreshold <= 0 || c.Workers.HybridThreshold > 1 {
		return errors.New("workers.hybrid_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if err := ensurePositiveMap(map[string]int{
		"timeouts.loudness_floor_seconds":    c.Timeouts.LoudnessFloor,
		"timeouts.loudness_ceiling_seconds":  c.Timeouts.LoudnessCeiling,
		"timeouts.stereo_seconds":            c.Timeouts.StereoSeconds,
		"timeouts.technical_floor_seconds":   c.Timeouts.TechnicalFloor,
		"timeouts.technical_ceiling_seconds": c.Timeouts.TechnicalCeiling,
		"timeouts.tempo_seconds":             c.Timeouts.TempoSeconds,
		"engine.load_timeout":                c.Engine.LoadTimeout,
	}); err != nil {
		return err
	}
	if c.Timeouts.LoudnessCeiling < c.Timeouts.LoudnessFloor {
		return errors.New("timeouts.loudness_ceiling_seconds must be >= timeouts.loudness_floor_seconds")
	}
	if c.Timeouts.TechnicalCeiling < c.Timeouts.TechnicalFloor {
		return errors.New("timeouts.technical_ceiling_seconds must be >= timeouts.technical_floor_seconds")
	}
	if c.Timeouts.LoudnessPerAudioSecond <= 0 {
		return errors.New("timeouts.loudness_per_audio_second must be positive")
	}
	if c.Timeouts.TechnicalPerAudioSecond <= 0 {
		return errors.New("timeouts.technical_per_audio_second must be positive")
	}
	return nil
}

func (c *Config) validateDaemon() error {
	return ensurePositiveMap(map[string]int{
		"daemon.queue_poll_interval":  c.Daemon.QueuePollInterval,
		"daemon.error_retry_interval": c.Daemon.ErrorRetryInterval,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
