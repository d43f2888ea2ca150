package highgamma

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// bandGain is a band-pass response with raised-cosine transitions: unity
// inside [Low, High], rolling off to zero over tw Hz on either side.
func bandGain(f float64, band ieeg.FrequencyBand, tw float64) float64 {
	switch {
	case f >= band.Low && f <= band.High:
		return 1
	case f > band.Low-tw && f < band.Low:
		return 0.5 * (1 + math.Cos(math.Pi*(band.Low-f)/tw))
	case f > band.High && f < band.High+tw:
		return 0.5 * (1 + math.Cos(math.Pi*(f-band.High)/tw))
	default:
		return 0
	}
}

// notchGain is a band-stop response: zero at f0, raised-cosine recovery to
// unity at f0±width.
func notchGain(f, f0, width float64) float64 {
	d := math.Abs(f - f0)
	if d >= width {
		return 1
	}
	return 0.5 * (1 - math.Cos(math.Pi*d/width))
}

// expandHarmonics returns each line frequency and its integer harmonics
// strictly below the Nyquist limit.
func expandHarmonics(lines []float64, nyquist float64) []float64 {
	var out []float64
	for _, f0 := range lines {
		if f0 <= 0 {
			continue
		}
		for f := f0; f < nyquist; f += f0 {
			out = append(out, f)
		}
	}
	return out
}

// notchChannel removes the given frequencies from x in place using a
// zero-phase frequency-domain filter.
func notchChannel(fft *fourier.FFT, x []float64, freqs []float64, width, rate float64) {
	n := len(x)
	coeff := fft.Coefficients(nil, x)
	for i := range coeff {
		f := float64(i) * rate / float64(n)
		g := 1.0
		for _, f0 := range freqs {
			g *= notchGain(f, f0, width)
		}
		coeff[i] *= complex(g, 0)
	}
	fft.Sequence(x, coeff)
	scale := 1 / float64(n)
	for i := range x {
		x[i] *= scale
	}
}

// bandEnvelope computes the instantaneous amplitude of x inside the band:
// the magnitude of the analytic signal restricted to the band. The
// analytic signal is built in a single pass over the spectrum by zeroing
// negative frequencies, doubling positives and applying the band-pass
// response.
func bandEnvelope(cf *fourier.CmplxFFT, buf []complex128, x []float64, band ieeg.FrequencyBand, tw, rate float64, dst []float64) {
	n := len(x)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}
	coeff := cf.Coefficients(nil, buf)
	for i := range coeff {
		// Signed bin frequency: bins above n/2 are negative.
		var f float64
		if i <= n/2 {
			f = float64(i) * rate / float64(n)
		} else {
			f = float64(i-n) * rate / float64(n)
		}

		var g float64
		switch {
		case f <= 0:
			g = 0
		case n%2 == 0 && i == n/2:
			// Shared positive/negative Nyquist bin is not doubled.
			g = bandGain(f, band, tw)
		default:
			g = 2 * bandGain(f, band, tw)
		}
		coeff[i] *= complex(g, 0)
	}
	cf.Sequence(buf, coeff)
	scale := 1 / float64(n)
	for i := range dst {
		dst[i] = cmplx.Abs(buf[i]) * scale
	}
}

// fourierResample resamples x to outLen samples by truncating (or
// padding) its spectrum, which is inherently anti-aliased: frequencies
// above the new Nyquist are removed rather than folded back.
func fourierResample(x []float64, outLen int) []float64 {
	n := len(x)
	if outLen == n {
		return append([]float64(nil), x...)
	}
	in := fourier.NewFFT(n)
	coeff := in.Coefficients(nil, x)

	outCoeff := make([]complex128, outLen/2+1)
	m := len(coeff)
	if len(outCoeff) < m {
		m = len(outCoeff)
	}
	copy(outCoeff[:m], coeff[:m])
	// The output Nyquist bin must be purely real for the inverse
	// transform to produce a real sequence.
	if outLen%2 == 0 && m == outLen/2+1 {
		outCoeff[outLen/2] = complex(real(outCoeff[outLen/2]), 0)
	}

	out := fourier.NewFFT(outLen)
	y := out.Sequence(nil, outCoeff)
	scale := 1 / float64(n)
	for i := range y {
		y[i] *= scale
	}
	return y
}
