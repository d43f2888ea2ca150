package ieeg

import "errors"

// Sentinel errors returned by the preprocessing pipeline. Callers should
// match with errors.Is; wrapped messages carry the offending value.
var (
	// ErrChannelNotFound is returned when a named channel is absent from a
	// recording's channel list.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrLengthMismatch is returned when paired channel lists (e.g. bipolar
	// anodes and cathodes) differ in length.
	ErrLengthMismatch = errors.New("channel list length mismatch")

	// ErrInvalidBand is returned when a frequency band is empty, inverted,
	// or extends to or beyond the Nyquist frequency of the signal.
	ErrInvalidBand = errors.New("invalid frequency band")

	// ErrInvalidConfig is returned when a transform configuration is
	// unsatisfiable, such as an output rate above the input rate.
	ErrInvalidConfig = errors.New("invalid transform configuration")
)
