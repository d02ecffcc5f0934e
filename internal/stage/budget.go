package stage

import "time"

// Budget computes a stage's timeout from the audio duration: proportional to
// the size of the work, clamped on both ends so pathologically short or long
// inputs neither starve nor hang the pipeline.
type Budget struct {
	Floor     time.Duration
	Ceiling   time.Duration
	PerSecond time.Duration
}

// Fixed returns a budget that ignores the audio duration.
func Fixed(d time.Duration) Budget {
	return Budget{Floor: d, Ceiling: d}
}

// For returns the timeout for the given audio duration.
func (b Budget) For(audio time.Duration) time.Duration {
	scaled := time.Duration(audio.Seconds() * float64(b.PerSecond))
	if scaled < b.Floor {
		return b.Floor
	}
	if b.Ceiling > 0 && scaled > b.Ceiling {
		return b.Ceiling
	}
	return scaled
}

// Per-stage budgets. Loudness and technical scale with the input; stereo and
// tempo are cheap enough for a flat allowance.
var (
	LoudnessBudget  = Budget{Floor: 30 * time.Second, Ceiling: 300 * time.Second, PerSecond: 5 * time.Second}
	StereoBudget    = Fixed(10 * time.Second)
	TechnicalBudget = Budget{Floor: 15 * time.Second, Ceiling: 180 * time.Second, PerSecond: 3 * time.Second}
	TempoBudget     = Fixed(20 * time.Second)
)
