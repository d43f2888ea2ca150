package events

import (
	"testing"

	"github.com/cortical-data/ecog/internal/ieeg"
)

func TestAlign(t *testing.T) {
	evs := []ieeg.Event{
		{Onset: 2.5, Duration: 1.0, Value: 4},
		{Onset: 0, Duration: 0.5, Value: 1},
		{Onset: 0.999, Duration: 0.015, Value: 2},
	}

	got := Align(evs, 100)

	want := []ieeg.AlignedEvent{
		{Sample: 250, DurationSamples: 100, Value: 4},
		{Sample: 0, DurationSamples: 50, Value: 1},
		{Sample: 99, DurationSamples: 1, Value: 2}, // floor, not round
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAlignKeepsOutOfRangeEvents(t *testing.T) {
	// Alignment does not validate range: an onset past the end of the
	// signal is converted as-is and left for epoching to drop.
	got := Align([]ieeg.Event{{Onset: 1e6, Duration: 1, Value: 9}}, 100)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Sample != 1e8 {
		t.Errorf("sample = %d, want 100000000", got[0].Sample)
	}
}

func TestAlignPreservesOrder(t *testing.T) {
	evs := []ieeg.Event{
		{Onset: 5, Value: 2},
		{Onset: 1, Value: 1},
		{Onset: 3, Value: 3},
	}
	got := Align(evs, 10)
	if got[0].Value != 2 || got[1].Value != 1 || got[2].Value != 3 {
		t.Errorf("alignment reordered events: %+v", got)
	}
}
