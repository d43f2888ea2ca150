package ieeg

// Event is an annotation in absolute seconds from recording start, with
// an integer condition label. The onset/duration/value triple matches the
// tab-separated events file convention of the upstream dataset layout.
type Event struct {
	Onset    float64 // seconds
	Duration float64 // seconds
	Value    int
}

// AlignedEvent is an Event converted to sample indices against a specific
// sample rate. Alignment does not range-check: an event beyond the end of
// the signal keeps its (out-of-range) index and is dealt with during
// epoching.
type AlignedEvent struct {
	Sample          int
	DurationSamples int
	Value           int
}
