package stage

import "fmt"

// Outcome classifies how a stage ended.
type Outcome int

const (
	// OutcomeSuccess means the stage produced its value normally.
	OutcomeSuccess Outcome = iota
	// OutcomeDegraded means the stage produced a usable but lower-quality
	// substitute value.
	OutcomeDegraded
	// OutcomeSkipped means the stage was never attempted; its field is
	// omitted from the final result.
	OutcomeSkipped
	// OutcomeFailed means the stage was attempted and did not produce a
	// value; its field is omitted from the final result.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged outcome of a single stage. A Degraded result always
// carries a usable value; Skipped and Failed never do.
type Result[T any] struct {
	Outcome Outcome
	Value   T
	Reason  string
	Err     error
}

// Success wraps a normally produced value.
func Success[T any](value T) Result[T] {
	return Result[T]{Outcome: OutcomeSuccess, Value: value}
}

// Degraded wraps a substitute value with the reason it was substituted.
func Degraded[T any](value T, reason string) Result[T] {
	return Result[T]{Outcome: OutcomeDegraded, Value: value, Reason: reason}
}

// Skipped records a stage that was never attempted.
func Skipped[T any](reason string) Result[T] {
	return Result[T]{Outcome: OutcomeSkipped, Reason: reason}
}

// Failed records an attempted stage that produced no value.
func Failed[T any](err error) Result[T] {
	r := Result[T]{Outcome: OutcomeFailed, Err: err}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// Usable reports whether the result carries a value the assembler may use.
func (r Result[T]) Usable() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeDegraded
}
