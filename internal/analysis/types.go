package analysis

import (
	"time"

	"soundcheck/internal/services"
)

// FileMetadata carries caller-supplied descriptor info. The pipeline only
// interprets Channels; everything else is passed through untouched.
type FileMetadata struct {
	Channels int    `json:"channels"`
	BitDepth int    `json:"bitDepth,omitempty"`
	Format   string `json:"format,omitempty"`
}

// Request is one unit of analysis work. The orchestrator borrows it for the
// duration of a run and never mutates it.
type Request struct {
	Samples    []float32     `json:"samples"`
	SampleRate int           `json:"sampleRate"`
	KnownTempo float64       `json:"knownTempo,omitempty"`
	Meta       *FileMetadata `json:"fileMetadata,omitempty"`
}

// Channels returns the channel count declared by the caller, defaulting to
// mono when no metadata was supplied.
func (r *Request) Channels() int {
	if r == nil || r.Meta == nil || r.Meta.Channels <= 0 {
		return 1
	}
	return r.Meta.Channels
}

// Duration derives the audio length from the interleaved sample count.
func (r *Request) Duration() time.Duration {
	if r == nil || r.SampleRate <= 0 || len(r.Samples) == 0 {
		return 0
	}
	frames := len(r.Samples) / r.Channels()
	return time.Duration(float64(frames) / float64(r.SampleRate) * float64(time.Second))
}

// Validate reports whether the request is well formed enough to analyze.
// A failure here is a transport-level malformation and aborts the request.
func (r *Request) Validate() error {
	if r == nil {
		return services.Wrap(services.ErrValidation, "analysis", "validate", "request is nil", nil)
	}
	if len(r.Samples) == 0 {
		return services.Wrap(services.ErrValidation, "analysis", "validate", "sample buffer is empty", nil)
	}
	if r.SampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "analysis", "validate", "sample rate must be positive", nil)
	}
	if r.Meta != nil && r.Meta.Channels < 0 {
		return services.Wrap(services.ErrValidation, "analysis", "validate", "channel count must not be negative", nil)
	}
	return nil
}

// LoudnessResult is the required analysis output.
type LoudnessResult struct {
	MomentaryMax float64 `json:"momentaryMax"`
	ShortTermMax float64 `json:"shortTermMax"`
	Integrated   float64 `json:"integrated"`
}

// LoudnessMeasurement couples the loudness figures with the gating block
// counts the engine observed while integrating.
type LoudnessMeasurement struct {
	LoudnessResult
	ValidBlocks int
	TotalBlocks int
}

// StereoResult describes the stereo field. Only produced for inputs with two
// or more channels; never fabricated.
type StereoResult struct {
	Correlation float64 `json:"correlation"`
	Width       float64 `json:"width"`
	Balance     float64 `json:"balance"`
}

// PerfectMono is the fixed stereo-field result for single-channel input.
// Mono never reaches the engine's stereo capability.
func PerfectMono() StereoResult {
	return StereoResult{Correlation: 1, Width: 0, Balance: 0}
}

// TechnicalResult groups the engine's deeper diagnostics.
type TechnicalResult struct {
	TruePeak  float64          `json:"truePeak"`
	Quality   QualityReport    `json:"quality"`
	Spectral  SpectralSummary  `json:"spectral"`
	Silence   SilenceReport    `json:"silence"`
	Mastering MasteringReport  `json:"mastering"`
}

// QualityReport flags sample-level defects.
type QualityReport struct {
	ClippedSamples int     `json:"clippedSamples"`
	DCOffset       float64 `json:"dcOffset"`
	Score          float64 `json:"score"`
}

// SpectralSummary condenses the spectral shape.
type SpectralSummary struct {
	Centroid float64 `json:"centroid"`
	Rolloff  float64 `json:"rolloff"`
	Flatness float64 `json:"flatness"`
}

// SilenceReport measures leading and trailing silence in seconds.
type SilenceReport struct {
	LeadIn  float64 `json:"leadIn"`
	LeadOut float64 `json:"leadOut"`
}

// MasteringReport summarizes headroom and dynamics.
type MasteringReport struct {
	Headroom     float64 `json:"headroom"`
	DynamicRange float64 `json:"dynamicRange"`
}

// TempoResult carries a tempo estimate with the method's self-reported
// confidence in [0,1].
type TempoResult struct {
	BPM        float64 `json:"bpm"`
	Confidence float64 `json:"confidence"`
}

// Performance records wall-clock timing per phase plus the total.
type Performance struct {
	TotalTime  time.Duration            `json:"totalTime"`
	PhaseTimes map[string]time.Duration `json:"phaseTimes,omitempty"`
}

// Result is the assembled output of one pipeline run. Loudness is always
// present; the optional fields are absent entirely when their stage was
// skipped or failed.
type Result struct {
	Loudness    LoudnessResult   `json:"loudness"`
	RMS         float64          `json:"rms"`
	ValidBlocks int              `json:"validBlocks"`
	TotalBlocks int              `json:"totalBlocks"`
	Performance Performance      `json:"performance"`
	Tempo       *TempoResult     `json:"tempo,omitempty"`
	Stereo      *StereoResult    `json:"stereo,omitempty"`
	Technical   *TechnicalResult `json:"technical,omitempty"`
}
