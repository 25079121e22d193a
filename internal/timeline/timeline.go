// Package timeline derives per-step elapsed times and visual weights
// from a recorded action sequence.
package timeline

import (
	"fmt"
	"math"

	"github.com/stepsnap/stepsnap/internal/action"
)

// fallbackTotalSeconds is reported when the sequence holds fewer than
// two actions. A single data point carries no measurable duration.
const fallbackTotalSeconds = 30

// capMs treats any step longer than a minute as exactly a minute for
// the weight scale, so weights never grow past 100.
const capMs = 60000

// Entry describes the gap between two consecutive actions. StepIndex
// is the index of the later action.
type Entry struct {
	StepIndex         int
	DurationMs        int64
	DurationFormatted string
	WeightPercent     float64
}

// Known reports whether the entry carries a measured duration. Gaps
// with out-of-order timestamps are kept for count consistency but
// their elapsed time is unknown.
func (e Entry) Known() bool {
	return e.DurationMs >= 0
}

// Reconstruct computes one entry per adjacent action pair. Negative
// gaps (clock skew, replayed data) are emitted with an empty formatted
// duration and the minimum weight, never a negative display value.
func Reconstruct(actions []action.Action) []Entry {
	if len(actions) < 2 {
		return []Entry{}
	}
	entries := make([]Entry, 0, len(actions)-1)
	for i := 1; i < len(actions); i++ {
		d := actions[i].When() - actions[i-1].When()
		e := Entry{StepIndex: i, DurationMs: d, WeightPercent: 1}
		if d >= 0 {
			e.DurationFormatted = FormatDuration(d)
			e.WeightPercent = Weight(d)
		}
		entries = append(entries, e)
	}
	return entries
}

// TotalDurationSeconds is the rounded wall-clock span of the whole
// sequence, or the fixed fallback for sequences too short to measure.
func TotalDurationSeconds(actions []action.Action) int {
	if len(actions) < 2 {
		return fallbackTotalSeconds
	}
	span := actions[len(actions)-1].When() - actions[0].When()
	return int(math.Round(float64(span) / 1000))
}

// FormatDuration renders a millisecond duration for display. The
// minute/second split uses floor on both parts, 90999ms is "1m 30s".
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dm %ds", ms/60000, (ms%60000)/1000)
}

// weightBucket maps a duration range onto a weight range.
type weightBucket struct {
	fromMs, toMs   int64
	fromPct, toPct float64
}

// The bucket boundaries are a deliberate visualization choice: a plain
// percentage-of-total would make sub-second steps invisible next to
// multi-second waits. They are fixed constants, not configuration.
var weightBuckets = []weightBucket{
	{0, 1000, 1, 10},
	{1000, 5000, 10, 30},
	{5000, 15000, 30, 60},
	{15000, 30000, 60, 85},
	{30000, capMs, 85, 100},
}

// Weight maps a step duration onto a percentage in [1,100] used as the
// step's visual weight, interpolating linearly inside each bucket.
func Weight(ms int64) float64 {
	if ms < 0 {
		ms = 0
	}
	if ms > capMs {
		ms = capMs
	}
	for _, b := range weightBuckets {
		if ms < b.toMs || b.toMs == capMs {
			fraction := float64(ms-b.fromMs) / float64(b.toMs-b.fromMs)
			return b.fromPct + fraction*(b.toPct-b.fromPct)
		}
	}
	return 100
}
