// Package spectral computes per-channel power spectral densities for
// channel quality inspection. Bad-channel screening is human-in-the-loop:
// the PSD is rendered and a reviewer flags channels with abnormal
// spectra; nothing here marks channels automatically.
package spectral

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// PSD is the Welch power spectral density of every channel of a
// recording. Power is one-sided density in unit²/Hz; rows of Power are
// parallel to Channels.
type PSD struct {
	Channels []ieeg.Channel
	Freqs    []float64
	Power    [][]float64
}

// Options controls the Welch estimate. The zero value gives a one-second
// Hann-windowed segment with 50% overlap.
type Options struct {
	// SegmentSamples is the length of each windowed segment. Defaults to
	// one second of samples, clamped to the recording length.
	SegmentSamples int
	// MaxFreq truncates the reported spectrum. Zero keeps everything up
	// to Nyquist.
	MaxFreq float64
}

// Welch estimates each channel's PSD by averaging modified periodograms
// of Hann-windowed, half-overlapping segments.
func Welch(rec *ieeg.Recording, opts Options) (*PSD, error) {
	n := rec.Samples()
	if n == 0 {
		return nil, fmt.Errorf("empty recording: %w", ieeg.ErrInvalidConfig)
	}

	seg := opts.SegmentSamples
	if seg == 0 {
		seg = int(rec.SampleRate)
	}
	if seg > n {
		seg = n
	}
	if seg < 8 {
		return nil, fmt.Errorf("segment of %d samples is too short: %w", seg, ieeg.ErrInvalidConfig)
	}
	step := seg / 2

	// Window power normalization: sum of squared window values.
	win := window.Hann(ones(seg))
	var wss float64
	for _, w := range win {
		wss += w * w
	}

	nb := seg/2 + 1
	freqs := make([]float64, nb)
	for i := range freqs {
		freqs[i] = float64(i) * rec.SampleRate / float64(seg)
	}

	fft := fourier.NewFFT(seg)
	buf := make([]float64, seg)

	psd := &PSD{
		Channels: append([]ieeg.Channel(nil), rec.Channels...),
		Freqs:    freqs,
		Power:    make([][]float64, len(rec.Data)),
	}

	for ci, data := range rec.Data {
		power := make([]float64, nb)
		segments := 0
		for start := 0; start+seg <= n; start += step {
			copy(buf, data[start:start+seg])
			demean(buf)
			for i := range buf {
				buf[i] *= win[i]
			}
			coeff := fft.Coefficients(nil, buf)
			for i, c := range coeff {
				p := cmplx.Abs(c)
				power[i] += p * p
			}
			segments++
		}
		if segments == 0 {
			return nil, fmt.Errorf("recording shorter than one segment: %w", ieeg.ErrInvalidConfig)
		}

		// One-sided density: double interior bins, normalize by window
		// power and sample rate, average over segments.
		scale := 1 / (rec.SampleRate * wss * float64(segments))
		for i := range power {
			power[i] *= scale
			if i != 0 && !(seg%2 == 0 && i == nb-1) {
				power[i] *= 2
			}
		}
		psd.Power[ci] = power
	}

	if opts.MaxFreq > 0 {
		cut := len(freqs)
		for i, f := range freqs {
			if f > opts.MaxFreq {
				cut = i
				break
			}
		}
		psd.Freqs = psd.Freqs[:cut]
		for i := range psd.Power {
			psd.Power[i] = psd.Power[i][:cut]
		}
	}

	return psd, nil
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func demean(x []float64) {
	var m float64
	for _, v := range x {
		m += v
	}
	m /= float64(len(x))
	for i := range x {
		x[i] -= m
	}
}
