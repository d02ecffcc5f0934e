package pipeline

import (
	"context"
	"log/slog"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/engine"
	"soundcheck/internal/hybrid"
	"soundcheck/internal/logging"
	"soundcheck/internal/services"
	"soundcheck/internal/stage"
	"soundcheck/internal/stageexec"
)

// DefaultHybridThreshold gates the heavier tempo method: the secondary runs
// only when the baseline's confidence falls below this value.
const DefaultHybridThreshold = 0.75

// ProgressFunc receives checkpoint events as the pipeline advances.
type ProgressFunc func(percent int, phase string)

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithHybridThreshold overrides the tempo confidence gate.
func WithHybridThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		if threshold > 0 {
			o.threshold = threshold
		}
	}
}

// WithPhaseBudget overrides one phase's timeout budget.
func WithPhaseBudget(phase Phase, budget stage.Budget) Option {
	return func(o *Orchestrator) {
		spec := o.plan[phase]
		spec.budget = budget
		o.plan[phase] = spec
	}
}

// Orchestrator drives one request through the phase plan, applying each
// phase's fallback policy. A failure inside a phase never aborts the run;
// only a malformed request does.
type Orchestrator struct {
	engines   *engine.Adapter
	logger    *slog.Logger
	threshold float64
	plan      map[Phase]phaseSpec
}

// New constructs an orchestrator bound to one worker context's engine
// adapter.
func New(engines *engine.Adapter, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engines:   engines,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		threshold: DefaultHybridThreshold,
		plan:      make(map[Phase]phaseSpec, len(plan)),
	}
	for phase, spec := range plan {
		o.plan[phase] = spec
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the full phase sequence for one request. The returned error is
// non-nil only for a malformed request, which the caller must surface as the
// terminal error message.
func (o *Orchestrator) Run(ctx context.Context, req *analysis.Request, progress ProgressFunc) (*analysis.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, string) {}
	}

	start := time.Now()
	phaseTimes := make(map[string]time.Duration, 6)
	emit := newMonotoneEmitter(progress)
	audio := req.Duration()

	// Init: the adapter absorbs acquisition failure internally, so this
	// phase always succeeds from the caller's point of view.
	phaseStart := time.Now()
	handle := o.engines.Acquire(ctx)
	phaseTimes[PhaseInit.String()] = time.Since(phaseStart)
	emit(o.plan[PhaseInit].checkpoint, PhaseInit.String())

	loudness := o.runLoudness(ctx, handle, req, audio, phaseTimes)
	emit(o.plan[PhaseLoudness].checkpoint, PhaseLoudness.String())

	stereo := o.runStereo(ctx, handle, req, audio, phaseTimes)
	emit(o.plan[PhaseStereo].checkpoint, PhaseStereo.String())

	technical := o.runTechnical(ctx, handle, req, audio, loudness.Value.Integrated, phaseTimes)
	emit(o.plan[PhaseTechnical].checkpoint, PhaseTechnical.String())

	tempo := o.runTempo(ctx, handle, req, phaseTimes)
	emit(o.plan[PhaseTempo].checkpoint, PhaseTempo.String())

	phaseStart = time.Now()
	result := assemble(req, loudness, stereo, technical, tempo)
	phaseTimes[PhaseAssembly.String()] = time.Since(phaseStart)
	result.Performance = analysis.Performance{
		TotalTime:  time.Since(start),
		PhaseTimes: phaseTimes,
	}
	emit(o.plan[PhaseAssembly].checkpoint, PhaseAssembly.String())
	emit(100, "complete")

	return result, nil
}

// runLoudness executes the one required phase. It is never absent from the
// final result: on failure the neutral constants stand in as a degraded
// value.
func (o *Orchestrator) runLoudness(ctx context.Context, handle engine.Handle, req *analysis.Request, audio time.Duration, phaseTimes map[string]time.Duration) stage.Result[analysis.LoudnessMeasurement] {
	phaseStart := time.Now()
	defer func() { phaseTimes[PhaseLoudness.String()] = time.Since(phaseStart) }()

	budget := o.plan[PhaseLoudness].budget.For(audio)
	result := stageexec.Run(ctx, PhaseLoudness.String(), budget, func(ctx context.Context) (analysis.LoudnessMeasurement, error) {
		return handle.Loudness(ctx, req)
	})
	if result.Usable() {
		return result
	}

	o.phaseLogger(ctx, PhaseLoudness).Warn("loudness failed; substituting neutral values",
		logging.Error(result.Err),
		logging.Duration("budget", budget),
		logging.String(logging.FieldEventType, "stage_degraded"))
	neutral, _ := engine.Neutral{}.Loudness(ctx, req)
	return stage.Degraded(neutral, "neutral substitute after failure")
}

// runStereo applies the skip-don't-fabricate policy. Explicit mono input
// short-circuits to the fixed perfect-mono result without touching the
// engine; unknown channel metadata skips instead, since fabricating a stereo
// number would be worse than omitting one.
func (o *Orchestrator) runStereo(ctx context.Context, handle engine.Handle, req *analysis.Request, audio time.Duration, phaseTimes map[string]time.Duration) stage.Result[analysis.StereoResult] {
	phaseStart := time.Now()
	defer func() { phaseTimes[PhaseStereo.String()] = time.Since(phaseStart) }()

	switch {
	case req.Meta == nil || req.Meta.Channels <= 0:
		return stage.Skipped[analysis.StereoResult]("channel count unknown")
	case req.Meta.Channels == 1:
		return stage.Success(analysis.PerfectMono())
	}

	analyzer, ok := engine.StereoOf(handle)
	if !ok {
		return stage.Skipped[analysis.StereoResult]("engine lacks stereo capability")
	}

	budget := o.plan[PhaseStereo].budget.For(audio)
	result := stageexec.Run(ctx, PhaseStereo.String(), budget, func(ctx context.Context) (analysis.StereoResult, error) {
		return analyzer.Stereo(ctx, req)
	})
	if !result.Usable() {
		o.phaseLogger(ctx, PhaseStereo).Warn("stereo analysis failed; omitting field",
			logging.Error(result.Err),
			logging.String(logging.FieldEventType, "stage_skipped"))
	}
	return result
}

// runTechnical mirrors the stereo policy with its own budget, consuming the
// integrated loudness produced by the required phase.
func (o *Orchestrator) runTechnical(ctx context.Context, handle engine.Handle, req *analysis.Request, audio time.Duration, integrated float64, phaseTimes map[string]time.Duration) stage.Result[analysis.TechnicalResult] {
	phaseStart := time.Now()
	defer func() { phaseTimes[PhaseTechnical.String()] = time.Since(phaseStart) }()

	analyzer, ok := engine.TechnicalOf(handle)
	if !ok {
		return stage.Skipped[analysis.TechnicalResult]("engine lacks technical capability")
	}

	budget := o.plan[PhaseTechnical].budget.For(audio)
	result := stageexec.Run(ctx, PhaseTechnical.String(), budget, func(ctx context.Context) (analysis.TechnicalResult, error) {
		return analyzer.Technical(ctx, req, integrated)
	})
	if !result.Usable() {
		o.phaseLogger(ctx, PhaseTechnical).Warn("technical analysis failed; omitting field",
			logging.Error(result.Err),
			logging.String(logging.FieldEventType, "stage_skipped"))
	}
	return result
}

// runTempo resolves the tempo estimate. A caller-supplied tempo wins
// outright; otherwise the hybrid selector arbitrates between the engine's
// baseline and onset methods.
func (o *Orchestrator) runTempo(ctx context.Context, handle engine.Handle, req *analysis.Request, phaseTimes map[string]time.Duration) stage.Result[analysis.TempoResult] {
	phaseStart := time.Now()
	defer func() { phaseTimes[PhaseTempo.String()] = time.Since(phaseStart) }()

	if req.KnownTempo > 0 {
		return stage.Success(analysis.TempoResult{BPM: req.KnownTempo, Confidence: 1})
	}

	detector, ok := engine.TempoOf(handle)
	if !ok {
		return stage.Skipped[analysis.TempoResult]("engine lacks tempo capability")
	}

	primary := func(ctx context.Context) (analysis.TempoResult, float64, error) {
		estimate, err := detector.Tempo(ctx, req)
		return estimate, estimate.Confidence, err
	}
	var secondary hybrid.Candidate[analysis.TempoResult]
	if onset, ok := engine.OnsetTempoOf(handle); ok {
		secondary = func(ctx context.Context) (analysis.TempoResult, float64, error) {
			estimate, err := onset.OnsetTempo(ctx, req)
			return estimate, estimate.Confidence, err
		}
	}

	budget := o.plan[PhaseTempo].budget.For(req.Duration())
	result := stageexec.Run(ctx, PhaseTempo.String(), budget, func(ctx context.Context) (analysis.TempoResult, error) {
		estimate, _, err := hybrid.Select(ctx, primary, secondary, o.threshold)
		return estimate, err
	})
	if !result.Usable() {
		o.phaseLogger(ctx, PhaseTempo).Warn("tempo detection failed; omitting field",
			logging.Error(result.Err),
			logging.String(logging.FieldEventType, "stage_skipped"))
	}
	return result
}

// assemble merges usable phase outputs into the final result. Optional
// fields are set only for Success or Degraded outcomes; Skipped and Failed
// leave them absent.
func assemble(
	req *analysis.Request,
	loudness stage.Result[analysis.LoudnessMeasurement],
	stereo stage.Result[analysis.StereoResult],
	technical stage.Result[analysis.TechnicalResult],
	tempo stage.Result[analysis.TempoResult],
) *analysis.Result {
	result := &analysis.Result{
		Loudness:    loudness.Value.LoudnessResult,
		ValidBlocks: loudness.Value.ValidBlocks,
		TotalBlocks: loudness.Value.TotalBlocks,
		RMS:         analysis.RMS(req.Samples),
	}
	if stereo.Usable() {
		value := stereo.Value
		result.Stereo = &value
	}
	if technical.Usable() {
		value := technical.Value
		result.Technical = &value
	}
	if tempo.Usable() {
		value := tempo.Value
		result.Tempo = &value
	}
	return result
}

func (o *Orchestrator) phaseLogger(ctx context.Context, phase Phase) *slog.Logger {
	return logging.WithContext(services.WithPhase(ctx, phase.String()), o.logger)
}

// newMonotoneEmitter clamps checkpoint values so the progress stream never
// decreases within a run.
func newMonotoneEmitter(progress ProgressFunc) ProgressFunc {
	last := 0
	return func(percent int, phase string) {
		if percent < last {
			percent = last
		}
		last = percent
		progress(percent, phase)
	}
}
