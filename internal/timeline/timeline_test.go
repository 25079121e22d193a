package timeline

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stepsnap/stepsnap/internal/action"
)

func clickAt(ts int64) action.Action {
	return action.Click{Timestamp: ts, Coordinates: action.Coordinates{X: 1, Y: 1}}
}

func TestTotalDurationTwoActions(t *testing.T) {
	actions := []action.Action{clickAt(0), clickAt(1500)}
	if got := TotalDurationSeconds(actions); got != 2 {
		t.Fatalf("expected 2 but got %d", got)
	}
}

func TestTotalDurationFallback(t *testing.T) {
	if got := TotalDurationSeconds([]action.Action{}); got != 30 {
		t.Fatalf("expected fallback 30 but got %d", got)
	}
	if got := TotalDurationSeconds([]action.Action{clickAt(5)}); got != 30 {
		t.Fatalf("expected fallback 30 but got %d", got)
	}
}

func TestReconstructTooFewActions(t *testing.T) {
	if got := Reconstruct([]action.Action{clickAt(1)}); len(got) != 0 {
		t.Fatalf("expected no entries but got %d", len(got))
	}
}

func TestFormatDurationBoundaries(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{60000, "1m 0s"},
		{65000, "1m 5s"},
		{90999, "1m 30s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.expected {
			t.Fatalf("FormatDuration(%d): expected %q but got %q", tt.ms, tt.expected, got)
		}
	}
}

func TestWeightBucketBoundaries(t *testing.T) {
	tests := []struct {
		ms       int64
		expected float64
	}{
		{0, 1},
		{1000, 10},
		{5000, 30},
		{15000, 60},
		{30000, 85},
		{60000, 100},
		{600000, 100},
	}
	for _, tt := range tests {
		if got := Weight(tt.ms); got != tt.expected {
			t.Fatalf("Weight(%d): expected %f but got %f", tt.ms, tt.expected, got)
		}
	}
}

func TestNegativeDurationSafety(t *testing.T) {
	actions := []action.Action{clickAt(5000), clickAt(1000), clickAt(7000)}
	entries := Reconstruct(actions)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %d", len(entries))
	}
	if entries[0].Known() {
		t.Fatalf("expected the out-of-order gap to be unknown")
	}
	if entries[0].DurationFormatted != "" {
		t.Fatalf("expected no formatted duration but got %q", entries[0].DurationFormatted)
	}
	if entries[0].WeightPercent != 1 {
		t.Fatalf("expected minimum weight but got %f", entries[0].WeightPercent)
	}
	if !entries[1].Known() || entries[1].DurationMs != 6000 {
		t.Fatalf("expected a known 6000ms gap but got %+v", entries[1])
	}
}

func TestReconstructStepIndexes(t *testing.T) {
	actions := []action.Action{clickAt(0), clickAt(100), clickAt(300)}
	entries := Reconstruct(actions)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries but got %d", len(entries))
	}
	if entries[0].StepIndex != 1 || entries[1].StepIndex != 2 {
		t.Fatalf("expected step indexes 1 and 2 but got %d and %d", entries[0].StepIndex, entries[1].StepIndex)
	}
	if entries[1].DurationMs != 200 {
		t.Fatalf("expected 200ms but got %d", entries[1].DurationMs)
	}
}

func TestWeightProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("weight is always within [1,100]", prop.ForAll(
		func(ms int64) bool {
			w := Weight(ms)
			return w >= 1 && w <= 100
		},
		gen.Int64Range(-1000, 10_000_000),
	))

	properties.Property("weight is monotone", prop.ForAll(
		func(a, b int64) bool {
			if a > b {
				a, b = b, a
			}
			return Weight(a) <= Weight(b)
		},
		gen.Int64Range(0, 120000),
		gen.Int64Range(0, 120000),
	))

	properties.TestingRun(t)
}
