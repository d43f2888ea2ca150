// Package epochs slices a derived signal into fixed-length windows around
// event onsets and computes across-trial averages for plotting.
package epochs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// EpochSet holds the windowed trials for one label selection. Trials are
// ephemeral: they are computed on demand for averaging and never
// persisted.
type EpochSet struct {
	Channels   []ieeg.Channel
	SampleRate float64
	Tmin       float64
	Tmax       float64
	// Trials is trial-major: Trials[k][i] is the window of channel i in
	// trial k.
	Trials [][][]float64
	// Events are the retained events, parallel to Trials.
	Events []ieeg.AlignedEvent
	// Dropped counts events excluded because their window extended
	// outside the signal.
	Dropped int
}

// Average is the across-trial mean and standard error of the mean for one
// channel.
type Average struct {
	Channel ieeg.Channel
	Mean    []float64
	SEM     []float64
}

// Slice extracts a [tmin, tmax] window (seconds relative to onset) around
// each event whose label appears in labels. A nil or empty labels set
// matches every event. Events whose window would extend outside the valid
// sample range are dropped, not padded; the drop count is reported on the
// returned set.
func Slice(sig *ieeg.DerivedSignal, aligned []ieeg.AlignedEvent, tmin, tmax float64, labels []int) (*EpochSet, error) {
	if tmax <= tmin {
		return nil, fmt.Errorf("epoch window [%g, %g] is empty: %w", tmin, tmax, ieeg.ErrInvalidConfig)
	}

	want := map[int]bool{}
	for _, l := range labels {
		want[l] = true
	}

	lo := int(math.Round(tmin * sig.SampleRate))
	hi := int(math.Round(tmax * sig.SampleRate))
	n := sig.Samples()

	set := &EpochSet{
		Channels:   append([]ieeg.Channel(nil), sig.Channels...),
		SampleRate: sig.SampleRate,
		Tmin:       tmin,
		Tmax:       tmax,
	}

	for _, ev := range aligned {
		if len(want) > 0 && !want[ev.Value] {
			continue
		}
		start, end := ev.Sample+lo, ev.Sample+hi
		if start < 0 || end > n {
			set.Dropped++
			continue
		}

		trial := make([][]float64, len(sig.Data))
		for i, row := range sig.Data {
			trial[i] = row[start:end]
		}
		set.Trials = append(set.Trials, trial)
		set.Events = append(set.Events, ev)
	}

	return set, nil
}

// Len returns the number of retained trials.
func (s *EpochSet) Len() int { return len(s.Trials) }

// WindowSamples returns the per-trial sample count.
func (s *EpochSet) WindowSamples() int {
	if len(s.Trials) == 0 {
		return 0
	}
	return len(s.Trials[0][0])
}

// Times returns the time axis of the window in seconds relative to event
// onset.
func (s *EpochSet) Times() []float64 {
	w := s.WindowSamples()
	ts := make([]float64, w)
	for t := range ts {
		ts[t] = s.Tmin + float64(t)/s.SampleRate
	}
	return ts
}

// Average computes the per-channel across-trial mean and standard error
// of the mean.
func (s *EpochSet) Average() ([]Average, error) {
	if len(s.Trials) == 0 {
		return nil, fmt.Errorf("no trials retained: %w", ieeg.ErrInvalidConfig)
	}

	w := s.WindowSamples()
	out := make([]Average, len(s.Channels))
	sample := make([]float64, len(s.Trials))

	for i, ch := range s.Channels {
		mean := make([]float64, w)
		sem := make([]float64, w)
		for t := 0; t < w; t++ {
			for k := range s.Trials {
				sample[k] = s.Trials[k][i][t]
			}
			m, std := stat.MeanStdDev(sample, nil)
			mean[t] = m
			sem[t] = std / math.Sqrt(float64(len(sample)))
		}
		out[i] = Average{Channel: ch, Mean: mean, SEM: sem}
	}
	return out, nil
}
