// Package edfio reads and writes iEEG recordings as EDF (European Data
// Format) files, the 16-bit exchange format used for checkpointing
// preprocessed signals, plus the tab-separated channels sidecar carrying
// per-channel type and good/bad status.
package edfio

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// header mirrors the fixed-width ASCII EDF header: 256 bytes of file
// metadata followed by 256 bytes per signal.
type header struct {
	version     string
	patientID   string
	recordingID string
	startTime   time.Time
	headerBytes int
	dataRecords int
	recordSecs  float64
	signals     []signalHeader
}

type signalHeader struct {
	label            string
	transducer       string
	physDim          string
	physMin          float64
	physMax          float64
	digMin           int
	digMax           int
	prefiltering     string
	samplesPerRecord int
}

const (
	fileHeaderSize   = 256
	signalHeaderSize = 256
	// Digital range of a 16-bit EDF sample.
	digitalMin = -32768
	digitalMax = 32767
)

// fixed pads or truncates s to exactly n bytes, EDF's field convention.
func fixed(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

// fixedFloat renders v into an 8-byte field, dropping precision until it
// fits.
func fixedFloat(v float64) string {
	for prec := 4; prec >= 0; prec-- {
		s := strconv.FormatFloat(v, 'f', prec, 64)
		if len(s) <= 8 {
			return fixed(s, 8)
		}
	}
	return fixed(strconv.FormatFloat(v, 'g', 2, 64), 8)
}

func parseField(b []byte) string {
	return strings.TrimSpace(string(b))
}

func parseFieldInt(b []byte) (int, error) {
	v, err := strconv.Atoi(parseField(b))
	if err != nil {
		return 0, fmt.Errorf("edf: bad integer field %q: %w", parseField(b), err)
	}
	return v, nil
}

func parseFieldFloat(b []byte) (float64, error) {
	v, err := strconv.ParseFloat(parseField(b), 64)
	if err != nil {
		return 0, fmt.Errorf("edf: bad numeric field %q: %w", parseField(b), err)
	}
	return v, nil
}

// digitalToPhysical maps a stored 16-bit sample to its physical value
// using the per-signal calibration.
func digitalToPhysical(d int16, sh signalHeader) float64 {
	if sh.digMax == sh.digMin {
		return 0
	}
	return sh.physMin + (float64(d)-float64(sh.digMin))*(sh.physMax-sh.physMin)/float64(sh.digMax-sh.digMin)
}

// physicalToDigital maps a physical value to its stored 16-bit sample,
// clamping at the digital range.
func physicalToDigital(p float64, sh signalHeader) int16 {
	if sh.physMax == sh.physMin {
		return 0
	}
	d := (p-sh.physMin)*float64(sh.digMax-sh.digMin)/(sh.physMax-sh.physMin) + float64(sh.digMin)
	if d > float64(sh.digMax) {
		return int16(sh.digMax)
	}
	if d < float64(sh.digMin) {
		return int16(sh.digMin)
	}
	return int16(d)
}
