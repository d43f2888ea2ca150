// Package reference implements re-referencing of multichannel recordings:
// single-channel, common-average and bipolar schemes. Apply always returns
// a new Recording and leaves its input untouched.
package reference

import (
	"fmt"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// Scheme selects and parameterizes a referencing strategy.
type Scheme interface {
	apply(rec *ieeg.Recording) (*ieeg.Recording, error)
}

// Apply re-references the recording under the given scheme.
func Apply(rec *ieeg.Recording, scheme Scheme) (*ieeg.Recording, error) {
	return scheme.apply(rec)
}

// SingleChannel subtracts one named channel from every channel.
type SingleChannel struct {
	Name string
}

func (s SingleChannel) apply(rec *ieeg.Recording) (*ieeg.Recording, error) {
	ref, err := rec.ChannelData(s.Name)
	if err != nil {
		return nil, fmt.Errorf("single-channel reference: %w", err)
	}
	// Copy the reference first: if the reference channel itself is
	// rewritten before the others, every later subtraction would use the
	// already-zeroed values.
	refCopy := append([]float64(nil), ref...)

	out := rec.Clone()
	for i := range out.Data {
		row := out.Data[i]
		for t := range row {
			row[t] -= refCopy[t]
		}
	}
	return out, nil
}

// CommonAverage subtracts the per-sample mean of the good signal channels
// from every channel. Channels marked bad, and reference/other channels,
// are excluded from the mean: a bad channel folded into the average would
// leak its artifacts into every channel. They are still re-referenced
// against the resulting average.
type CommonAverage struct{}

func (CommonAverage) apply(rec *ieeg.Recording) (*ieeg.Recording, error) {
	signal := rec.SignalIndices()
	if len(signal) == 0 {
		return nil, fmt.Errorf("common-average reference: no good signal channels: %w", ieeg.ErrChannelNotFound)
	}

	n := rec.Samples()
	mean := make([]float64, n)
	for _, i := range signal {
		row := rec.Data[i]
		for t := range row {
			mean[t] += row[t]
		}
	}
	inv := 1 / float64(len(signal))
	for t := range mean {
		mean[t] *= inv
	}

	out := rec.Clone()
	for i := range out.Data {
		row := out.Data[i]
		for t := range row {
			row[t] -= mean[t]
		}
	}
	return out, nil
}

// Bipolar derives one channel per anode/cathode pair, value = anode -
// cathode, named "anode-cathode". Pairing is explicit: electrode geometry
// is not encoded in the data, so callers supply the lists. Original
// channels are not mutated or removed; the derived channels are appended
// after them.
type Bipolar struct {
	Anodes   []string
	Cathodes []string
}

func (b Bipolar) apply(rec *ieeg.Recording) (*ieeg.Recording, error) {
	if len(b.Anodes) != len(b.Cathodes) {
		return nil, fmt.Errorf("bipolar reference: %d anodes vs %d cathodes: %w",
			len(b.Anodes), len(b.Cathodes), ieeg.ErrLengthMismatch)
	}

	out := rec.Clone()
	for p := range b.Anodes {
		anode, err := rec.ChannelData(b.Anodes[p])
		if err != nil {
			return nil, fmt.Errorf("bipolar anode: %w", err)
		}
		cathode, err := rec.ChannelData(b.Cathodes[p])
		if err != nil {
			return nil, fmt.Errorf("bipolar cathode: %w", err)
		}

		diff := make([]float64, len(anode))
		for t := range diff {
			diff[t] = anode[t] - cathode[t]
		}

		ai, _ := rec.ChannelIndex(b.Anodes[p])
		ci, _ := rec.ChannelIndex(b.Cathodes[p])
		out.Channels = append(out.Channels, ieeg.Channel{
			Name: b.Anodes[p] + "-" + b.Cathodes[p],
			Type: rec.Channels[ai].Type,
			Bad:  rec.Channels[ai].Bad || rec.Channels[ci].Bad,
		})
		out.Data = append(out.Data, diff)
	}
	return out, nil
}
