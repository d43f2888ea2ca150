package ieeg

import "fmt"

// FrequencyBand is a half-open (Low, High) range in Hz.
type FrequencyBand struct {
	Low  float64
	High float64
}

// HighGammaSubBands is the number of contiguous sub-bands the high-gamma
// range is split into before envelope averaging. Narrow sub-bands carry
// independent noise but correlated signal, so averaging their envelopes
// improves SNR.
const HighGammaSubBands = 8

// HighGammaBand returns the canonical 70-150 Hz high-gamma range.
func HighGammaBand() FrequencyBand {
	return FrequencyBand{Low: 70, High: 150}
}

// Width returns the band width in Hz.
func (b FrequencyBand) Width() float64 {
	return b.High - b.Low
}

// Validate checks the band against a Nyquist limit. The band must be
// non-empty, non-negative and lie strictly below Nyquist.
func (b FrequencyBand) Validate(nyquist float64) error {
	if b.Low < 0 || b.High <= b.Low {
		return fmt.Errorf("band [%g, %g] Hz: %w", b.Low, b.High, ErrInvalidBand)
	}
	if b.High >= nyquist {
		return fmt.Errorf("band [%g, %g] Hz exceeds Nyquist %g Hz: %w", b.Low, b.High, nyquist, ErrInvalidBand)
	}
	return nil
}

// SubBands splits the band into n contiguous equal-width sub-bands.
func (b FrequencyBand) SubBands(n int) []FrequencyBand {
	if n <= 0 {
		return nil
	}
	width := b.Width() / float64(n)
	bands := make([]FrequencyBand, n)
	for i := range bands {
		bands[i] = FrequencyBand{
			Low:  b.Low + float64(i)*width,
			High: b.Low + float64(i+1)*width,
		}
	}
	// Close the final edge exactly, avoiding accumulated rounding.
	bands[n-1].High = b.High
	return bands
}

func (b FrequencyBand) String() string {
	return fmt.Sprintf("%g-%g Hz", b.Low, b.High)
}
