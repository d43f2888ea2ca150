package ieeg

// DerivedSignal is the output of an envelope transform: one real-valued
// amplitude series per input channel, possibly at a lower sample rate.
// Channel order and metadata are carried over from the source Recording;
// event markers are remapped to the output rate.
type DerivedSignal struct {
	Channels   []Channel
	SampleRate float64 // Hz, output rate
	Data       [][]float64
	Events     []AlignedEvent
}

// Samples returns the per-channel sample count.
func (d *DerivedSignal) Samples() int {
	if len(d.Data) == 0 {
		return 0
	}
	return len(d.Data[0])
}

// Duration returns the derived signal length in seconds.
func (d *DerivedSignal) Duration() float64 {
	return float64(d.Samples()) / d.SampleRate
}

// ChannelIndex returns the position of the named channel, or false if it
// is not present.
func (d *DerivedSignal) ChannelIndex(name string) (int, bool) {
	for i, c := range d.Channels {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}
