package epochs

import (
	"math"
	"testing"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// ramp builds a derived signal whose single channel is 0,1,2,... so
// window contents are predictable.
func ramp(n int, rate float64) *ieeg.DerivedSignal {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return &ieeg.DerivedSignal{
		Channels:   []ieeg.Channel{{Name: "ch0", Type: ieeg.ChannelECoG}},
		SampleRate: rate,
		Data:       [][]float64{data},
	}
}

func TestSliceWindows(t *testing.T) {
	sig := ramp(1000, 100)
	aligned := []ieeg.AlignedEvent{
		{Sample: 500, Value: 1},
	}

	set, err := Slice(sig, aligned, -0.1, 0.2, nil)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}

	if set.Len() != 1 {
		t.Fatalf("retained %d trials, want 1", set.Len())
	}
	if set.WindowSamples() != 30 {
		t.Errorf("window = %d samples, want 30", set.WindowSamples())
	}
	// [onset-0.1s, onset+0.2s) at 100 Hz starts at sample 490.
	if got := set.Trials[0][0][0]; got != 490 {
		t.Errorf("first window sample = %g, want 490", got)
	}
}

func TestSliceDropsOutOfRangeWindows(t *testing.T) {
	sig := ramp(1000, 100) // 10 seconds
	aligned := []ieeg.AlignedEvent{
		{Sample: 5, Value: 1},    // window starts before 0: dropped
		{Sample: 500, Value: 1},  // fully inside: kept
		{Sample: 995, Value: 1},  // window overruns the end: dropped
		{Sample: 2000, Value: 1}, // onset beyond the signal: dropped
	}

	set, err := Slice(sig, aligned, -0.1, 0.2, nil)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}

	if set.Len() != 1 {
		t.Errorf("retained %d trials, want 1", set.Len())
	}
	if set.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", set.Dropped)
	}
	if set.Events[0].Sample != 500 {
		t.Errorf("retained event sample = %d, want 500", set.Events[0].Sample)
	}
}

func TestSliceFiltersByLabel(t *testing.T) {
	sig := ramp(1000, 100)
	aligned := []ieeg.AlignedEvent{
		{Sample: 300, Value: 1},
		{Sample: 400, Value: 2},
		{Sample: 500, Value: 1},
	}

	set, err := Slice(sig, aligned, 0, 0.1, []int{1})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("retained %d trials, want 2 (label filter)", set.Len())
	}
	// Non-matching labels are skipped, not counted as dropped.
	if set.Dropped != 0 {
		t.Errorf("dropped = %d, want 0", set.Dropped)
	}
}

func TestSliceRejectsEmptyWindow(t *testing.T) {
	sig := ramp(100, 100)
	if _, err := Slice(sig, nil, 0.5, 0.5, nil); err == nil {
		t.Error("expected error for empty window")
	}
}

func TestAverageMeanAndSEM(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i % 10) // repeating ramp
	}
	sig := &ieeg.DerivedSignal{
		Channels:   []ieeg.Channel{{Name: "ch0"}},
		SampleRate: 10,
		Data:       [][]float64{data},
	}
	// Two identical trials and one offset trial.
	aligned := []ieeg.AlignedEvent{
		{Sample: 10, Value: 1},
		{Sample: 20, Value: 1},
		{Sample: 32, Value: 1},
	}

	set, err := Slice(sig, aligned, 0, 0.3, []int{1})
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("retained %d trials, want 3", set.Len())
	}

	averages, err := set.Average()
	if err != nil {
		t.Fatalf("Average: %v", err)
	}
	if len(averages) != 1 {
		t.Fatalf("got %d channel averages, want 1", len(averages))
	}

	avg := averages[0]
	// At t=0 the trials hold 0, 0 and 2: mean 2/3, sample std
	// sqrt(4/3), SEM std/sqrt(3).
	wantMean := 2.0 / 3.0
	wantSEM := math.Sqrt(4.0/3.0) / math.Sqrt(3)
	if math.Abs(avg.Mean[0]-wantMean) > 1e-9 {
		t.Errorf("mean[0] = %g, want %g", avg.Mean[0], wantMean)
	}
	if math.Abs(avg.SEM[0]-wantSEM) > 1e-9 {
		t.Errorf("SEM[0] = %g, want %g", avg.SEM[0], wantSEM)
	}
}

func TestAverageWithNoTrials(t *testing.T) {
	sig := ramp(100, 100)
	set, err := Slice(sig, nil, 0, 0.1, nil)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if _, err := set.Average(); err == nil {
		t.Error("expected error averaging an empty epoch set")
	}
}

func TestTimes(t *testing.T) {
	sig := ramp(1000, 100)
	set, err := Slice(sig, []ieeg.AlignedEvent{{Sample: 500}}, -0.1, 0.1, nil)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	times := set.Times()
	if len(times) != set.WindowSamples() {
		t.Fatalf("times length %d != window %d", len(times), set.WindowSamples())
	}
	if math.Abs(times[0]+0.1) > 1e-9 {
		t.Errorf("times[0] = %g, want -0.1", times[0])
	}
	if math.Abs(times[10]-0) > 1e-9 {
		t.Errorf("times[10] = %g, want 0 (event onset)", times[10])
	}
}
