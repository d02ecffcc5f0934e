package pipeline

import "soundcheck/internal/stage"

// Phase names one step of the analysis pipeline, in execution order.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLoudness
	PhaseStereo
	PhaseTechnical
	PhaseTempo
	PhaseAssembly
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseLoudness:
		return "loudness"
	case PhaseStereo:
		return "stereo"
	case PhaseTechnical:
		return "technical"
	case PhaseTempo:
		return "tempo"
	case PhaseAssembly:
		return "assembly"
	default:
		return "unknown"
	}
}

// phaseSpec declares a phase's progress checkpoint and fallback policy.
// Required phases substitute a neutral value on failure; optional phases omit
// their field instead, because a wrong number is worse than no number.
type phaseSpec struct {
	checkpoint int
	required   bool
	budget     stage.Budget
}

// plan is the transition table. The orchestrator walks it strictly in order;
// later phases may consume earlier phase outputs.
var plan = map[Phase]phaseSpec{
	PhaseInit:      {checkpoint: 15, required: true},
	PhaseLoudness:  {checkpoint: 45, required: true, budget: stage.LoudnessBudget},
	PhaseStereo:    {checkpoint: 75, budget: stage.StereoBudget},
	PhaseTechnical: {checkpoint: 85, budget: stage.TechnicalBudget},
	PhaseTempo:     {checkpoint: 90, budget: stage.TempoBudget},
	PhaseAssembly:  {checkpoint: 95, required: true},
}
