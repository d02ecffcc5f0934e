// Package hybrid implements confidence-gated selection between two candidate
// computations of the same quantity.
package hybrid

import (
	"context"
	"fmt"
)

// Candidate computes a value together with its self-reported confidence in
// [0,1].
type Candidate[T any] func(ctx context.Context) (T, float64, error)

// Select always evaluates primary. The secondary candidate runs only when it
// exists and the primary confidence falls below threshold; whichever
// candidate reports higher confidence wins, with ties favoring the primary
// (cheaper, already computed). Secondary failures of any kind, panics
// included, are swallowed: the primary result is always a safe return value.
func Select[T any](ctx context.Context, primary, secondary Candidate[T], threshold float64) (T, float64, error) {
	value, confidence, err := primary(ctx)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	if secondary == nil || confidence >= threshold {
		return value, confidence, nil
	}

	altValue, altConfidence, altErr := runSecondary(ctx, secondary)
	if altErr != nil || altConfidence <= confidence {
		return value, confidence, nil
	}
	return altValue, altConfidence, nil
}

func runSecondary[T any](ctx context.Context, candidate Candidate[T]) (value T, confidence float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, confidence = zero, 0
			err = fmt.Errorf("secondary candidate panicked: %v", r)
		}
	}()
	return candidate(ctx)
}
