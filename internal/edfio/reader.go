package edfio

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cortical-data/ecog/internal/ieeg"
	"github.com/cortical-data/ecog/internal/units"
)

// Decode parses an EDF file into a Recording. Every signal must share
// one sample rate; amplitudes are normalized to microvolts using each
// signal's physical dimension field. Channel types default to ECoG and
// can be refined afterwards from a channels sidecar via ApplyChannelInfo.
func Decode(data []byte) (*ieeg.Recording, error) {
	hdr, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	recordSamples := 0
	for _, sh := range hdr.signals {
		recordSamples += sh.samplesPerRecord
	}
	recordBytes := recordSamples * 2

	body := data[hdr.headerBytes:]
	records := hdr.dataRecords
	if records < 0 {
		// Unknown record count: infer from the body length.
		if recordBytes == 0 {
			return nil, fmt.Errorf("edf: zero-length data records")
		}
		records = len(body) / recordBytes
	}
	if len(body) < records*recordBytes {
		return nil, fmt.Errorf("edf: truncated file: %d data bytes, need %d", len(body), records*recordBytes)
	}
	if hdr.recordSecs <= 0 {
		return nil, fmt.Errorf("edf: non-positive data record duration %g", hdr.recordSecs)
	}

	rate := float64(hdr.signals[0].samplesPerRecord) / hdr.recordSecs
	for _, sh := range hdr.signals {
		if r := float64(sh.samplesPerRecord) / hdr.recordSecs; r != rate {
			return nil, fmt.Errorf("edf: mixed sample rates (%g vs %g Hz): %w", rate, r, ieeg.ErrInvalidConfig)
		}
	}

	channels := make([]ieeg.Channel, len(hdr.signals))
	rows := make([][]float64, len(hdr.signals))
	for i, sh := range hdr.signals {
		channels[i] = ieeg.Channel{Name: sh.label, Type: ieeg.ChannelECoG}
		rows[i] = make([]float64, 0, records*sh.samplesPerRecord)
	}

	off := 0
	for r := 0; r < records; r++ {
		for i, sh := range hdr.signals {
			for s := 0; s < sh.samplesPerRecord; s++ {
				d := int16(binary.LittleEndian.Uint16(body[off : off+2]))
				off += 2
				phys := digitalToPhysical(d, sh)
				rows[i] = append(rows[i], units.ToMicrovolts(phys, sh.physDim))
			}
		}
	}

	return ieeg.NewRecording(channels, rate, rows)
}

func decodeHeader(data []byte) (*header, error) {
	if len(data) < fileHeaderSize {
		return nil, fmt.Errorf("edf: file shorter than header (%d bytes)", len(data))
	}
	b := data[:fileHeaderSize]

	hdr := &header{
		version:     parseField(b[0:8]),
		patientID:   parseField(b[8:88]),
		recordingID: parseField(b[88:168]),
	}

	dateStr := parseField(b[168:176])
	timeStr := parseField(b[176:184])
	if start, err := time.Parse("02.01.06 15.04.05", dateStr+" "+timeStr); err == nil {
		hdr.startTime = start
	}

	var err error
	if hdr.headerBytes, err = parseFieldInt(b[184:192]); err != nil {
		return nil, err
	}
	if hdr.dataRecords, err = parseFieldInt(b[236:244]); err != nil {
		return nil, err
	}
	if hdr.recordSecs, err = parseFieldFloat(b[244:252]); err != nil {
		return nil, err
	}
	signalCount, err := parseFieldInt(b[252:256])
	if err != nil {
		return nil, err
	}
	if signalCount <= 0 {
		return nil, fmt.Errorf("edf: no signals in header")
	}

	want := fileHeaderSize + signalCount*signalHeaderSize
	if hdr.headerBytes != want {
		return nil, fmt.Errorf("edf: header size %d does not match %d signals", hdr.headerBytes, signalCount)
	}
	if len(data) < want {
		return nil, fmt.Errorf("edf: file shorter than signal headers")
	}

	hdr.signals = make([]signalHeader, signalCount)
	sb := data[fileHeaderSize:want]

	// Signal headers are stored field-major: all labels, then all
	// transducers, and so on.
	off := 0
	field := func(width int) func(i int) []byte {
		start := off
		off += width * signalCount
		return func(i int) []byte { return sb[start+i*width : start+(i+1)*width] }
	}
	labels := field(16)
	transducers := field(80)
	physDims := field(8)
	physMins := field(8)
	physMaxs := field(8)
	digMins := field(8)
	digMaxs := field(8)
	prefilters := field(80)
	samples := field(8)

	for i := range hdr.signals {
		sh := &hdr.signals[i]
		sh.label = parseField(labels(i))
		sh.transducer = parseField(transducers(i))
		sh.physDim = parseField(physDims(i))
		if sh.physMin, err = parseFieldFloat(physMins(i)); err != nil {
			return nil, err
		}
		if sh.physMax, err = parseFieldFloat(physMaxs(i)); err != nil {
			return nil, err
		}
		if sh.digMin, err = parseFieldInt(digMins(i)); err != nil {
			return nil, err
		}
		if sh.digMax, err = parseFieldInt(digMaxs(i)); err != nil {
			return nil, err
		}
		sh.prefiltering = parseField(prefilters(i))
		if sh.samplesPerRecord, err = parseFieldInt(samples(i)); err != nil {
			return nil, err
		}
		if sh.samplesPerRecord <= 0 {
			return nil, fmt.Errorf("edf: signal %q has %d samples per record", sh.label, sh.samplesPerRecord)
		}
	}

	return hdr, nil
}
