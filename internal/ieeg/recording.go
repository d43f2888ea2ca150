// Package ieeg defines the core data model for intracranial EEG
// preprocessing: multichannel recordings, channel metadata, frequency
// bands, events and derived amplitude signals.
//
// A Recording is an immutable-by-convention value: transforms return a new
// Recording (or DerivedSignal) and never mutate their input.
package ieeg

import (
	"fmt"
	"math"
)

// ChannelType classifies a channel's role in the montage.
type ChannelType string

const (
	ChannelECoG      ChannelType = "ECOG" // surface grid/strip electrode
	ChannelSEEG      ChannelType = "SEEG" // depth electrode
	ChannelReference ChannelType = "REF"  // hardware reference, excluded from analysis
	ChannelOther     ChannelType = "OTHER"
)

// Channel describes one electrode contact.
type Channel struct {
	Name string
	Type ChannelType
	Bad  bool // flagged during quality inspection; excluded from averages
}

// IsSignal reports whether the channel carries analyzable brain signal:
// an ECoG or SEEG contact that has not been marked bad.
func (c Channel) IsSignal() bool {
	return !c.Bad && (c.Type == ChannelECoG || c.Type == ChannelSEEG)
}

// Recording is an ordered multichannel time series at a uniform sample
// rate. Data is channel-major: Data[i] holds the samples of Channels[i].
// All channels share the same sample count.
type Recording struct {
	Channels   []Channel
	SampleRate float64 // Hz
	Data       [][]float64
	Events     []Event // annotations in seconds from recording start
}

// NewRecording validates and assembles a Recording. Every channel must
// have a data row of identical length and the sample rate must be
// positive.
func NewRecording(channels []Channel, sampleRate float64, data [][]float64) (*Recording, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if len(channels) != len(data) {
		return nil, fmt.Errorf("%d channels but %d data rows: %w", len(channels), len(data), ErrLengthMismatch)
	}
	if len(data) > 0 {
		n := len(data[0])
		for i, row := range data {
			if len(row) != n {
				return nil, fmt.Errorf("channel %q has %d samples, want %d: %w",
					channels[i].Name, len(row), n, ErrLengthMismatch)
			}
		}
	}
	return &Recording{Channels: channels, SampleRate: sampleRate, Data: data}, nil
}

// Samples returns the per-channel sample count.
func (r *Recording) Samples() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

// Duration returns the recording length in seconds.
func (r *Recording) Duration() float64 {
	return float64(r.Samples()) / r.SampleRate
}

// Nyquist returns half the sample rate, the highest representable
// frequency.
func (r *Recording) Nyquist() float64 {
	return r.SampleRate / 2
}

// ChannelIndex returns the position of the named channel, or false if it
// is not present.
func (r *Recording) ChannelIndex(name string) (int, bool) {
	for i, c := range r.Channels {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ChannelData returns the sample array for the named channel.
func (r *Recording) ChannelData(name string) ([]float64, error) {
	i, ok := r.ChannelIndex(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrChannelNotFound)
	}
	return r.Data[i], nil
}

// SignalIndices returns the indices of good ECoG/SEEG channels, the set
// that participates in averages and references.
func (r *Recording) SignalIndices() []int {
	var idx []int
	for i, c := range r.Channels {
		if c.IsSignal() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a deep copy of the recording. Transforms copy first and
// modify the copy so callers keep the original untouched.
func (r *Recording) Clone() *Recording {
	out := &Recording{
		Channels:   append([]Channel(nil), r.Channels...),
		SampleRate: r.SampleRate,
		Data:       make([][]float64, len(r.Data)),
		Events:     append([]Event(nil), r.Events...),
	}
	for i, row := range r.Data {
		out.Data[i] = append([]float64(nil), row...)
	}
	return out
}

// Pick returns a new Recording restricted to the named channels, in the
// given order. Unknown names fail with ErrChannelNotFound.
func (r *Recording) Pick(names []string) (*Recording, error) {
	channels := make([]Channel, 0, len(names))
	data := make([][]float64, 0, len(names))
	for _, name := range names {
		i, ok := r.ChannelIndex(name)
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrChannelNotFound)
		}
		channels = append(channels, r.Channels[i])
		data = append(data, append([]float64(nil), r.Data[i]...))
	}
	return &Recording{
		Channels:   channels,
		SampleRate: r.SampleRate,
		Data:       data,
		Events:     append([]Event(nil), r.Events...),
	}, nil
}

// OutputSamples returns the sample count of a series resampled from
// inSamples at inRate to outRate, using the rounding convention shared by
// the resampler and the sample-count invariant checks.
func OutputSamples(inSamples int, inRate, outRate float64) int {
	return int(math.Round(float64(inSamples) * outRate / inRate))
}
