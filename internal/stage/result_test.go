package stage

import (
	"errors"
	"testing"
)

func TestResultUsable(t *testing.T) {
	tests := []struct {
		name   string
		result Result[int]
		want   bool
	}{
		{"success", Success(42), true},
		{"degraded", Degraded(7, "engine unavailable"), true},
		{"skipped", Skipped[int]("mono input"), false},
		{"failed", Failed[int](errors.New("too slow")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Usable(); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDegradedAlwaysCarriesValue(t *testing.T) {
	r := Degraded(-23.0, "neutral substitute")
	if !r.Usable() {
		t.Fatal("degraded result must be usable")
	}
	if r.Value != -23.0 {
		t.Fatalf("Value = %v, want -23", r.Value)
	}
	if r.Reason == "" {
		t.Fatal("degraded result must carry its reason")
	}
}

func TestFailedRecordsReasonFromError(t *testing.T) {
	err := errors.New("engine exited")
	r := Failed[string](err)
	if r.Reason != "engine exited" {
		t.Fatalf("Reason = %q", r.Reason)
	}
	if !errors.Is(r.Err, err) {
		t.Fatalf("Err = %v", r.Err)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{OutcomeSuccess, "success"},
		{OutcomeDegraded, "degraded"},
		{OutcomeSkipped, "skipped"},
		{OutcomeFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
