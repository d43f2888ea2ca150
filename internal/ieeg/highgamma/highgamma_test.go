package highgamma

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/cortical-data/ecog/internal/ieeg"
	"github.com/cortical-data/ecog/internal/testutil"
)

func TestExtractPreservesShape(t *testing.T) {
	const rate = 1000.0
	rec := testutil.NewTestRecording(t, rate,
		testutil.Sine(10000, 100, 1.0, rate),
		testutil.Sine(10000, 120, 1.0, rate),
	)

	sig, err := Extract(rec, Config{OutputRate: 100, ZScore: false})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(sig.Channels) != len(rec.Channels) {
		t.Errorf("output channels = %d, want %d", len(sig.Channels), len(rec.Channels))
	}
	want := ieeg.OutputSamples(rec.Samples(), rate, 100)
	if sig.Samples() != want {
		t.Errorf("output samples = %d, want %d", sig.Samples(), want)
	}
	if sig.SampleRate != 100 {
		t.Errorf("output rate = %g, want 100", sig.SampleRate)
	}
	for i, ch := range sig.Channels {
		if ch.Name != rec.Channels[i].Name {
			t.Errorf("channel %d = %q, want %q (order must be preserved)", i, ch.Name, rec.Channels[i].Name)
		}
	}
}

func TestExtractRejectsUpsampling(t *testing.T) {
	rec := testutil.NewTestRecording(t, 1000, testutil.Sine(1000, 100, 1.0, 1000))

	_, err := Extract(rec, Config{OutputRate: 2000})
	if !errors.Is(err, ieeg.ErrInvalidConfig) {
		t.Errorf("Extract = %v, want ErrInvalidConfig", err)
	}
}

func TestExtractRejectsBandBeyondNyquist(t *testing.T) {
	// 200 Hz sampling puts Nyquist at 100 Hz, below the 150 Hz band
	// edge.
	rec := testutil.NewTestRecording(t, 200, testutil.Sine(2000, 50, 1.0, 200))

	_, err := Extract(rec, Config{})
	if !errors.Is(err, ieeg.ErrInvalidBand) {
		t.Errorf("Extract = %v, want ErrInvalidBand", err)
	}
}

func TestExtractEnvelopeTracksGatedTone(t *testing.T) {
	const (
		rate = 1000.0
		n    = 10000 // 10 seconds
		on   = 4000  // tone active 4s-6s
		off  = 6000
	)
	rec := testutil.NewTestRecording(t, rate,
		testutil.GatedSine(n, 100, 1.0, rate, on, off),
		testutil.GatedSine(n, 100, 1.0, rate, on, off),
	)

	sig, err := Extract(rec, Config{OutputRate: 100, ZScore: false})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// At 100 Hz output, the tone occupies samples 400-600. Compare mean
	// envelope well inside the active interval against a quiet stretch,
	// keeping clear of the gate edges.
	for ch := range sig.Data {
		active := mean(sig.Data[ch][420:580])
		quiet := mean(sig.Data[ch][100:300])
		if active < 5*quiet+1e-6 {
			t.Errorf("channel %d: active envelope %g not elevated over quiet %g", ch, active, quiet)
		}
	}
}

func TestExtractZScore(t *testing.T) {
	const rate = 1000.0
	rec := testutil.NewTestRecording(t, rate,
		testutil.GatedSine(10000, 110, 1.0, rate, 2000, 8000),
	)

	sig, err := Extract(rec, Config{ZScore: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	m := stat.Mean(sig.Data[0], nil)
	s := stat.StdDev(sig.Data[0], nil)
	if math.Abs(m) > 0.05 {
		t.Errorf("z-scored mean = %g, want ~0", m)
	}
	if math.Abs(s-1) > 0.05 {
		t.Errorf("z-scored std = %g, want ~1", s)
	}
}

func TestExtractLogTransform(t *testing.T) {
	const rate = 1000.0
	rec := testutil.NewTestRecording(t, rate,
		testutil.Sine(4000, 100, 1.0, rate),
	)

	plain, err := Extract(rec, Config{ZScore: false})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	logged, err := Extract(rec, Config{ZScore: false, LogTransform: true})
	if err != nil {
		t.Fatalf("Extract with log: %v", err)
	}

	// Away from the edges the logged envelope is the log of the plain
	// one.
	for _, i := range []int{1000, 2000, 3000} {
		want := math.Log(plain.Data[0][i])
		if math.Abs(logged.Data[0][i]-want) > 1e-6 {
			t.Errorf("log envelope[%d] = %g, want %g", i, logged.Data[0][i], want)
		}
	}
}

func TestExtractRemapsEvents(t *testing.T) {
	const rate = 1000.0
	rec := testutil.NewTestRecording(t, rate, testutil.Sine(10000, 100, 1.0, rate))
	rec.Events = []ieeg.Event{
		{Onset: 2.5, Duration: 1.0, Value: 7},
		{Onset: 9.999, Duration: 0, Value: 3},
	}

	sig, err := Extract(rec, Config{OutputRate: 100, ZScore: false})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(sig.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(sig.Events))
	}
	// floor(2.5*1000) = 2500 at the input rate, rescaled by 100/1000.
	if sig.Events[0].Sample != 250 {
		t.Errorf("event 0 sample = %d, want 250", sig.Events[0].Sample)
	}
	if sig.Events[0].DurationSamples != 100 {
		t.Errorf("event 0 duration = %d, want 100", sig.Events[0].DurationSamples)
	}
	if sig.Events[0].Value != 7 {
		t.Errorf("event 0 value = %d, want 7", sig.Events[0].Value)
	}
	// floor(9.999*1000) = 9999 -> round(999.9) = 1000, one past the
	// last valid output sample. Alignment keeps it; epoching drops it.
	if sig.Events[1].Sample != 1000 {
		t.Errorf("event 1 sample = %d, want 1000", sig.Events[1].Sample)
	}
}

func TestExtractDoesNotMutateInput(t *testing.T) {
	const rate = 1000.0
	row := testutil.Sine(2000, 100, 1.0, rate)
	orig := append([]float64(nil), row...)
	rec := testutil.NewTestRecording(t, rate, row)

	if _, err := Extract(rec, Config{Notch: []float64{60}, CAR: false, ZScore: false}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for i := range orig {
		if rec.Data[0][i] != orig[i] {
			t.Fatal("Extract mutated the input recording")
		}
	}
}

func TestPreset(t *testing.T) {
	band, n, err := Preset("high_gamma")
	if err != nil {
		t.Fatalf("Preset: %v", err)
	}
	if band != ieeg.HighGammaBand() || n != ieeg.HighGammaSubBands {
		t.Errorf("Preset = %v/%d, want %v/%d", band, n, ieeg.HighGammaBand(), ieeg.HighGammaSubBands)
	}

	if _, _, err := Preset("theta"); !errors.Is(err, ieeg.ErrInvalidConfig) {
		t.Errorf("Preset(theta) = %v, want ErrInvalidConfig", err)
	}
}

func mean(x []float64) float64 {
	var s float64
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}
