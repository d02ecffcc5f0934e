package hybrid

import (
	"context"
	"errors"
	"testing"
)

func candidate(value float64, confidence float64, calls *int) Candidate[float64] {
	return func(context.Context) (float64, float64, error) {
		if calls != nil {
			*calls++
		}
		return value, confidence, nil
	}
}

func TestSelectConfidentPrimarySkipsSecondary(t *testing.T) {
	var secondaryCalls int
	value, confidence, err := Select(context.Background(),
		candidate(120, 0.9, nil),
		candidate(128, 0.99, &secondaryCalls),
		0.7)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if secondaryCalls != 0 {
		t.Fatalf("secondary invoked %d times, want 0", secondaryCalls)
	}
	if value != 120 || confidence != 0.9 {
		t.Fatalf("got (%v, %v), want primary (120, 0.9)", value, confidence)
	}
}

func TestSelectLowConfidencePrefersStrongerSecondary(t *testing.T) {
	var secondaryCalls int
	value, confidence, err := Select(context.Background(),
		candidate(120, 0.4, nil),
		candidate(128, 0.8, &secondaryCalls),
		0.7)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if secondaryCalls != 1 {
		t.Fatalf("secondary invoked %d times, want 1", secondaryCalls)
	}
	if value != 128 || confidence != 0.8 {
		t.Fatalf("got (%v, %v), want secondary (128, 0.8)", value, confidence)
	}
}

func TestSelectTieFavorsPrimary(t *testing.T) {
	value, _, err := Select(context.Background(),
		candidate(120, 0.5, nil),
		candidate(128, 0.5, nil),
		0.7)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if value != 120 {
		t.Fatalf("got %v, want primary on tie", value)
	}
}

func TestSelectMissingSecondary(t *testing.T) {
	value, confidence, err := Select[float64](context.Background(),
		candidate(120, 0.1, nil), nil, 0.7)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if value != 120 || confidence != 0.1 {
		t.Fatalf("got (%v, %v), want primary", value, confidence)
	}
}

func TestSelectSecondaryErrorSwallowed(t *testing.T) {
	failing := func(context.Context) (float64, float64, error) {
		return 0, 0, errors.New("onset detector unavailable")
	}
	value, confidence, err := Select(context.Background(),
		candidate(120, 0.2, nil), failing, 0.7)
	if err != nil {
		t.Fatalf("secondary error must not propagate: %v", err)
	}
	if value != 120 || confidence != 0.2 {
		t.Fatalf("got (%v, %v), want primary", value, confidence)
	}
}

func TestSelectSecondaryPanicSwallowed(t *testing.T) {
	panicking := func(context.Context) (float64, float64, error) {
		panic("boom")
	}
	value, _, err := Select(context.Background(),
		candidate(120, 0.2, nil), panicking, 0.7)
	if err != nil {
		t.Fatalf("secondary panic must not propagate: %v", err)
	}
	if value != 120 {
		t.Fatalf("got %v, want primary", value)
	}
}

func TestSelectPrimaryErrorPropagates(t *testing.T) {
	cause := errors.New("no tempo method")
	failing := func(context.Context) (float64, float64, error) {
		return 0, 0, cause
	}
	_, _, err := Select[float64](context.Background(), failing, nil, 0.7)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want primary error", err)
	}
}
