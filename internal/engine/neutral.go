package engine

import (
	"context"

	"soundcheck/internal/analysis"
)

// Neutral engine constants. The values are deliberately and recognizably
// synthetic: -23 LUFS is the broadcast reference level, and zero block counts
// signal that no real gating happened.
const (
	NeutralIntegratedLUFS = -23.0
	NeutralMomentaryMax   = -23.0
	NeutralShortTermMax   = -23.0
)

// Neutral stands in when the real engine cannot be acquired. It implements
// only the required loudness surface, so every optional stage skips cleanly
// instead of receiving fabricated data.
type Neutral struct{}

func (Neutral) Name() string { return "neutral" }

func (Neutral) Loudness(context.Context, *analysis.Request) (analysis.LoudnessMeasurement, error) {
	return analysis.LoudnessMeasurement{
		LoudnessResult: analysis.LoudnessResult{
			MomentaryMax: NeutralMomentaryMax,
			ShortTermMax: NeutralShortTermMax,
			Integrated:   NeutralIntegratedLUFS,
		},
	}, nil
}
