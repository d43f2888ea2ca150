// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic-signal builders used across test
// files so each test does not hand-roll its own sine generators.
package testutil

import (
	"math"
	"strconv"
	"testing"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Sine returns n samples of a sinusoid at freq Hz sampled at rate Hz.
func Sine(n int, freq, amplitude, rate float64) []float64 {
	x := make([]float64, n)
	for t := range x {
		x[t] = amplitude * math.Sin(2*math.Pi*freq*float64(t)/rate)
	}
	return x
}

// GatedSine returns n samples of a sinusoid active only in [onSample,
// offSample); zero elsewhere.
func GatedSine(n int, freq, amplitude, rate float64, onSample, offSample int) []float64 {
	x := make([]float64, n)
	for t := onSample; t < offSample && t < n; t++ {
		x[t] = amplitude * math.Sin(2*math.Pi*freq*float64(t)/rate)
	}
	return x
}

// NewTestRecording builds a recording from the given channel data rows,
// naming channels ch0, ch1, ... with type ECoG.
func NewTestRecording(t *testing.T, rate float64, rows ...[]float64) *ieeg.Recording {
	t.Helper()
	channels := make([]ieeg.Channel, len(rows))
	for i := range channels {
		channels[i] = ieeg.Channel{Name: chName(i), Type: ieeg.ChannelECoG}
	}
	rec, err := ieeg.NewRecording(channels, rate, rows)
	AssertNoError(t, err)
	return rec
}

func chName(i int) string {
	return "ch" + strconv.Itoa(i)
}
