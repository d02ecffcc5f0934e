package engine

import (
	"context"

	"soundcheck/internal/analysis"
)

// Capability names one optional surface of an engine.
type Capability string

const (
	CapLoudness   Capability = "loudness"
	CapStereo     Capability = "stereo"
	CapTechnical  Capability = "technical"
	CapTempo      Capability = "tempo"
	CapOnsetTempo Capability = "tempo-onset"
)

// Handle is the minimum surface every engine provides. Loudness is the one
// required capability; everything else is optional and discovered at runtime.
//
// A Handle is created once per worker context and reused for every request
// that context serves. Engines must not hold request-specific state between
// calls.
type Handle interface {
	Name() string
	Loudness(ctx context.Context, req *analysis.Request) (analysis.LoudnessMeasurement, error)
}

// StereoAnalyzer is the optional stereo-field capability.
type StereoAnalyzer interface {
	Stereo(ctx context.Context, req *analysis.Request) (analysis.StereoResult, error)
}

// TechnicalAnalyzer is the optional deep-diagnostics capability. It consumes
// the integrated loudness produced by the required stage.
type TechnicalAnalyzer interface {
	Technical(ctx context.Context, req *analysis.Request, integrated float64) (analysis.TechnicalResult, error)
}

// TempoDetector is the fast baseline tempo method.
type TempoDetector interface {
	Tempo(ctx context.Context, req *analysis.Request) (analysis.TempoResult, error)
}

// OnsetTempoDetector is the heavier alternative tempo method consulted by the
// hybrid selector when the baseline is not confident enough.
type OnsetTempoDetector interface {
	OnsetTempo(ctx context.Context, req *analysis.Request) (analysis.TempoResult, error)
}

// capable is implemented by engines whose capability set is narrower than
// their method set (e.g. a subprocess engine probed at load time).
type capable interface {
	Capabilities() []Capability
}

// Has reports whether the handle exposes the named capability. Engines that
// do not declare an explicit capability set are taken at interface value.
func Has(h Handle, cap Capability) bool {
	if h == nil {
		return false
	}
	c, ok := h.(capable)
	if !ok {
		return true
	}
	for _, have := range c.Capabilities() {
		if have == cap {
			return true
		}
	}
	return false
}

// StereoOf returns the handle's stereo capability when present.
func StereoOf(h Handle) (StereoAnalyzer, bool) {
	s, ok := h.(StereoAnalyzer)
	if !ok || !Has(h, CapStereo) {
		return nil, false
	}
	return s, true
}

// TechnicalOf returns the handle's technical capability when present.
func TechnicalOf(h Handle) (TechnicalAnalyzer, bool) {
	t, ok := h.(TechnicalAnalyzer)
	if !ok || !Has(h, CapTechnical) {
		return nil, false
	}
	return t, true
}

// TempoOf returns the handle's baseline tempo capability when present.
func TempoOf(h Handle) (TempoDetector, bool) {
	t, ok := h.(TempoDetector)
	if !ok || !Has(h, CapTempo) {
		return nil, false
	}
	return t, true
}

// OnsetTempoOf returns the handle's alternative tempo capability when present.
func OnsetTempoOf(h Handle) (OnsetTempoDetector, bool) {
	t, ok := h.(OnsetTempoDetector)
	if !ok || !Has(h, CapOnsetTempo) {
		return nil, false
	}
	return t, true
}
