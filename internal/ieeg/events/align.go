// Package events converts annotation tables between physical time and
// sample indices, and reads/writes the tab-separated events file format
// used by the upstream dataset convention.
package events

import (
	"math"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// Align converts events from seconds to sample indices at the given
// rate: sample = floor(onset * rate), duration = floor(duration * rate).
// Ordering is preserved and no range validation is performed; an event
// past the end of the signal keeps its out-of-range index and is dropped
// later during epoching.
func Align(evs []ieeg.Event, rate float64) []ieeg.AlignedEvent {
	out := make([]ieeg.AlignedEvent, len(evs))
	for i, ev := range evs {
		out[i] = ieeg.AlignedEvent{
			Sample:          int(math.Floor(ev.Onset * rate)),
			DurationSamples: int(math.Floor(ev.Duration * rate)),
			Value:           ev.Value,
		}
	}
	return out
}
