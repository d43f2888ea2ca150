package edfio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cortical-data/ecog/internal/ieeg"
	"github.com/cortical-data/ecog/internal/units"
)

// Meta carries the EDF file-level identification fields.
type Meta struct {
	PatientID   string
	RecordingID string
	StartTime   time.Time
}

// Encode serializes a Recording to EDF bytes. Amplitudes are stored in
// microvolts with per-channel calibration spanning the observed range.
// Integer sample rates are written as one-second data records, padding a
// trailing partial second with zeros; fractional rates fall back to a
// single data record spanning the whole signal.
func Encode(rec *ieeg.Recording, meta Meta) ([]byte, error) {
	n := rec.Samples()
	if n == 0 || len(rec.Channels) == 0 {
		return nil, fmt.Errorf("edf: empty recording")
	}

	samplesPerRecord := n
	recordSecs := float64(n) / rec.SampleRate
	if rec.SampleRate == math.Trunc(rec.SampleRate) {
		samplesPerRecord = int(rec.SampleRate)
		recordSecs = 1
	}
	records := (n + samplesPerRecord - 1) / samplesPerRecord

	hdr := &header{
		version:     "0",
		patientID:   meta.PatientID,
		recordingID: meta.RecordingID,
		startTime:   meta.StartTime,
		headerBytes: fileHeaderSize + len(rec.Channels)*signalHeaderSize,
		dataRecords: records,
		recordSecs:  recordSecs,
		signals:     make([]signalHeader, len(rec.Channels)),
	}

	for i, ch := range rec.Channels {
		lo, hi := rangeOf(rec.Data[i])
		if lo == hi {
			// Flat channel: widen the range so calibration stays
			// well-defined.
			lo, hi = lo-1, hi+1
		}
		hdr.signals[i] = signalHeader{
			label:            ch.Name,
			physDim:          units.UV,
			physMin:          lo,
			physMax:          hi,
			digMin:           digitalMin,
			digMax:           digitalMax,
			samplesPerRecord: samplesPerRecord,
		}
	}

	var buf bytes.Buffer
	buf.Grow(hdr.headerBytes + records*samplesPerRecord*len(rec.Channels)*2)
	encodeHeader(&buf, hdr)

	for r := 0; r < records; r++ {
		for i := range rec.Channels {
			sh := hdr.signals[i]
			row := rec.Data[i]
			for s := 0; s < samplesPerRecord; s++ {
				t := r*samplesPerRecord + s
				var phys float64
				if t < len(row) {
					phys = row[t]
				}
				var b [2]byte
				binary.LittleEndian.PutUint16(b[:], uint16(physicalToDigital(phys, sh)))
				buf.Write(b[:])
			}
		}
	}

	return buf.Bytes(), nil
}

// EncodeDerived serializes a DerivedSignal as EDF by wrapping it in a
// Recording at the derived rate. Event markers are not representable in
// plain EDF; save them separately as an events table.
func EncodeDerived(sig *ieeg.DerivedSignal, meta Meta) ([]byte, error) {
	rec, err := ieeg.NewRecording(sig.Channels, sig.SampleRate, sig.Data)
	if err != nil {
		return nil, err
	}
	return Encode(rec, meta)
}

func encodeHeader(buf *bytes.Buffer, hdr *header) {
	buf.WriteString(fixed(hdr.version, 8))
	buf.WriteString(fixed(hdr.patientID, 80))
	buf.WriteString(fixed(hdr.recordingID, 80))
	buf.WriteString(fixed(hdr.startTime.Format("02.01.06"), 8))
	buf.WriteString(fixed(hdr.startTime.Format("15.04.05"), 8))
	buf.WriteString(fixed(fmt.Sprintf("%d", hdr.headerBytes), 8))
	buf.WriteString(fixed("", 44))
	buf.WriteString(fixed(fmt.Sprintf("%d", hdr.dataRecords), 8))
	buf.WriteString(fixedFloat(hdr.recordSecs))
	buf.WriteString(fixed(fmt.Sprintf("%d", len(hdr.signals)), 4))

	for _, sh := range hdr.signals {
		buf.WriteString(fixed(sh.label, 16))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(sh.transducer, 80))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(sh.physDim, 8))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixedFloat(sh.physMin))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixedFloat(sh.physMax))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(fmt.Sprintf("%d", sh.digMin), 8))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(fmt.Sprintf("%d", sh.digMax), 8))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(sh.prefiltering, 80))
	}
	for _, sh := range hdr.signals {
		buf.WriteString(fixed(fmt.Sprintf("%d", sh.samplesPerRecord), 8))
	}
	for range hdr.signals {
		buf.WriteString(fixed("", 32))
	}
}

func rangeOf(x []float64) (lo, hi float64) {
	lo, hi = x[0], x[0]
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
