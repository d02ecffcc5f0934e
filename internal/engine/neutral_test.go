package engine

import (
	"context"
	"testing"

	"soundcheck/internal/analysis"
)

func TestNeutralLoudnessConstants(t *testing.T) {
	m, err := Neutral{}.Loudness(context.Background(), &analysis.Request{})
	if err != nil {
		t.Fatalf("Loudness: %v", err)
	}
	if m.Integrated != NeutralIntegratedLUFS {
		t.Errorf("Integrated = %v, want %v", m.Integrated, NeutralIntegratedLUFS)
	}
	if m.MomentaryMax != NeutralMomentaryMax || m.ShortTermMax != NeutralShortTermMax {
		t.Errorf("maxima = (%v, %v), want neutral constants", m.MomentaryMax, m.ShortTermMax)
	}
	if m.ValidBlocks != 0 || m.TotalBlocks != 0 {
		t.Errorf("blocks = %d/%d, want 0/0", m.ValidBlocks, m.TotalBlocks)
	}
}

func TestNeutralExposesNoOptionalCapabilities(t *testing.T) {
	var h Handle = Neutral{}
	if _, ok := StereoOf(h); ok {
		t.Error("neutral engine must not expose stereo")
	}
	if _, ok := TechnicalOf(h); ok {
		t.Error("neutral engine must not expose technical")
	}
	if _, ok := TempoOf(h); ok {
		t.Error("neutral engine must not expose tempo")
	}
	if _, ok := OnsetTempoOf(h); ok {
		t.Error("neutral engine must not expose onset tempo")
	}
}

type cappedEngine struct {
	fakeEngine
	caps []Capability
}

func (c cappedEngine) Capabilities() []Capability { return c.caps }

func (c cappedEngine) Stereo(context.Context, *analysis.Request) (analysis.StereoResult, error) {
	return analysis.StereoResult{}, nil
}

func TestHasConsultsDeclaredCapabilitySet(t *testing.T) {
	withStereo := cappedEngine{caps: []Capability{CapLoudness, CapStereo}}
	withoutStereo := cappedEngine{caps: []Capability{CapLoudness}}

	if _, ok := StereoOf(withStereo); !ok {
		t.Error("declared stereo capability not detected")
	}
	// The method exists, but the probe said the capability is absent.
	if _, ok := StereoOf(withoutStereo); ok {
		t.Error("undeclared stereo capability must be hidden")
	}
}
