package reference

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cortical-data/ecog/internal/ieeg"
)

func newRecording(t *testing.T, channels []ieeg.Channel, data [][]float64) *ieeg.Recording {
	t.Helper()
	rec, err := ieeg.NewRecording(channels, 1000, data)
	if err != nil {
		t.Fatalf("NewRecording: %v", err)
	}
	return rec
}

func TestSingleChannelSelfReferenceIsZero(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{
			{Name: "G1", Type: ieeg.ChannelECoG},
			{Name: "G2", Type: ieeg.ChannelECoG},
		},
		[][]float64{
			{1.5, -2.0, 3.25},
			{0.5, 0.25, -1.0},
		},
	)

	out, err := Apply(rec, SingleChannel{Name: "G2"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// A channel referenced against itself must be exactly zero.
	got, err := out.ChannelData("G2")
	if err != nil {
		t.Fatalf("ChannelData: %v", err)
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("G2[%d] = %g, want 0", i, v)
		}
	}

	// Other channels are shifted by the reference.
	g1, _ := out.ChannelData("G1")
	want := []float64{1.0, -2.25, 4.25}
	if diff := cmp.Diff(want, g1); diff != "" {
		t.Errorf("G1 mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleChannelMissing(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{{Name: "G1", Type: ieeg.ChannelECoG}},
		[][]float64{{1, 2}},
	)
	_, err := Apply(rec, SingleChannel{Name: "G99"})
	if !errors.Is(err, ieeg.ErrChannelNotFound) {
		t.Errorf("Apply = %v, want ErrChannelNotFound", err)
	}
}

func TestApplyLeavesOriginalUntouched(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{
			{Name: "G1", Type: ieeg.ChannelECoG},
			{Name: "G2", Type: ieeg.ChannelECoG},
		},
		[][]float64{{1, 2}, {3, 4}},
	)

	if _, err := Apply(rec, CommonAverage{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rec.Data[0][0] != 1 || rec.Data[1][0] != 3 {
		t.Error("Apply mutated its input recording")
	}
}

func TestCommonAverageRemovesSharedSignal(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{
			{Name: "G1", Type: ieeg.ChannelECoG},
			{Name: "G2", Type: ieeg.ChannelECoG},
		},
		[][]float64{
			{10, 20},
			{30, 40},
		},
	)

	out, err := Apply(rec, CommonAverage{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Mean at t0 is 20, at t1 is 30.
	want := [][]float64{{-10, -10}, {10, 10}}
	if diff := cmp.Diff(want, out.Data); diff != "" {
		t.Errorf("CAR mismatch (-want +got):\n%s", diff)
	}

	// After one CAR pass the cross-channel mean is zero, so a second
	// pass is a no-op.
	twice, err := Apply(out, CommonAverage{})
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if diff := cmp.Diff(out.Data, twice.Data); diff != "" {
		t.Errorf("CAR on zero-mean data should be identity (-want +got):\n%s", diff)
	}
}

// CAR is not idempotent in general: when bad channels are excluded from
// the mean but still re-referenced, the post-CAR mean over good channels
// is zero, yet the bad channel keeps a nonzero value and a fresh
// recording's mean is rarely zero to begin with.
func TestCommonAverageNotIdempotentWithBadChannels(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{
			{Name: "G1", Type: ieeg.ChannelECoG},
			{Name: "G2", Type: ieeg.ChannelECoG},
			{Name: "G3", Type: ieeg.ChannelECoG, Bad: true},
		},
		[][]float64{
			{1, 1},
			{3, 3},
			{100, 100}, // artifact-laden channel
		},
	)

	once, err := Apply(rec, CommonAverage{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The bad channel must not contaminate the mean: mean of good
	// channels is 2, not 34.666.
	if got := once.Data[0][0]; got != -1 {
		t.Errorf("G1 after CAR = %g, want -1 (bad channel leaked into the average)", got)
	}
	// The bad channel is still re-referenced against the good-channel
	// average.
	if got := once.Data[2][0]; got != 98 {
		t.Errorf("G3 after CAR = %g, want 98", got)
	}
}

func TestCommonAverageNeedsGoodChannels(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{{Name: "G1", Type: ieeg.ChannelECoG, Bad: true}},
		[][]float64{{1, 2}},
	)
	if _, err := Apply(rec, CommonAverage{}); err == nil {
		t.Error("expected error when every channel is bad")
	}
}

func TestBipolar(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{
			{Name: "D1", Type: ieeg.ChannelSEEG},
			{Name: "D2", Type: ieeg.ChannelSEEG},
			{Name: "D3", Type: ieeg.ChannelSEEG},
		},
		[][]float64{
			{1, 2},
			{10, 20},
			{100, 200},
		},
	)

	out, err := Apply(rec, Bipolar{
		Anodes:   []string{"D1", "D2"},
		Cathodes: []string{"D2", "D3"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Originals preserved, derived pairs appended.
	if len(out.Channels) != 5 {
		t.Fatalf("got %d channels, want 5", len(out.Channels))
	}
	if out.Channels[3].Name != "D1-D2" || out.Channels[4].Name != "D2-D3" {
		t.Errorf("derived names = %q, %q", out.Channels[3].Name, out.Channels[4].Name)
	}
	if got := out.Data[3]; got[0] != -9 || got[1] != -18 {
		t.Errorf("D1-D2 = %v, want [-9 -18]", got)
	}
	if got := out.Data[4]; got[0] != -90 || got[1] != -180 {
		t.Errorf("D2-D3 = %v, want [-90 -180]", got)
	}
	if math.Abs(out.Data[0][0]-1) > 0 {
		t.Error("original channel data modified by bipolar referencing")
	}
}

func TestBipolarLengthMismatch(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{{Name: "D1"}, {Name: "D2"}},
		[][]float64{{0}, {0}},
	)
	_, err := Apply(rec, Bipolar{
		Anodes:   []string{"D1", "D2"},
		Cathodes: []string{"D2"},
	})
	if !errors.Is(err, ieeg.ErrLengthMismatch) {
		t.Errorf("Apply = %v, want ErrLengthMismatch", err)
	}
}

func TestBipolarUnknownChannel(t *testing.T) {
	rec := newRecording(t,
		[]ieeg.Channel{{Name: "D1"}, {Name: "D2"}},
		[][]float64{{0}, {0}},
	)
	_, err := Apply(rec, Bipolar{
		Anodes:   []string{"D1"},
		Cathodes: []string{"D9"},
	})
	if !errors.Is(err, ieeg.ErrChannelNotFound) {
		t.Errorf("Apply = %v, want ErrChannelNotFound", err)
	}
}
