package config

import (
	"time"

	"soundcheck/internal/stage"
)

// LoudnessBudget converts the configured loudness deadline into a budget.
func (t Timeouts) LoudnessBudget() stage.Budget {
	return stage.Budget{
		Floor:     time.Duration(t.LoudnessFloor) * time.Second,
		Ceiling:   time.Duration(t.LoudnessCeiling) * time.Second,
		PerSecond: time.Duration(t.LoudnessPerAudioSecond * float64(time.Second)),
	}
}

// StereoBudget converts the configured stereo deadline into a budget.
func (t Timeouts) StereoBudget() stage.Budget {
	return stage.Fixed(time.Duration(t.StereoSeconds) * time.Second)
}

// TechnicalBudget converts the configured technical deadline into a budget.
func (t Timeouts) TechnicalBudget() stage.Budget {
	return stage.Budget{
		Floor:     time.Duration(t.TechnicalFloor) * time.Second,
		Ceiling:   time.Duration(t.TechnicalCeiling) * time.Second,
		PerSecond: time.Duration(t.TechnicalPerAudioSecond * float64(time.Second)),
	}
}

// TempoBudget converts the configured tempo deadline into a budget.
func (t Timeouts) TempoBudget() stage.Budget {
	return stage.Fixed(time.Duration(t.TempoSeconds) * time.Second)
}
