package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cortical-data/ecog/internal/ieeg"
)

// The events file is tab-separated with a header row naming at least the
// onset (seconds), duration (seconds) and value (integer label) columns.
// Column order is taken from the header, so extra columns are ignored.

// ReadTSV parses an events table.
func ReadTSV(r io.Reader) ([]ieeg.Event, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("events: reading header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range []string{"onset", "duration", "value"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("events: missing column %q", name)
		}
	}

	var out []ieeg.Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("events: line %d: %w", line, err)
		}

		onset, err := strconv.ParseFloat(rec[cols["onset"]], 64)
		if err != nil {
			return nil, fmt.Errorf("events: line %d: bad onset %q: %w", line, rec[cols["onset"]], err)
		}
		duration, err := strconv.ParseFloat(rec[cols["duration"]], 64)
		if err != nil {
			return nil, fmt.Errorf("events: line %d: bad duration %q: %w", line, rec[cols["duration"]], err)
		}
		value, err := strconv.Atoi(rec[cols["value"]])
		if err != nil {
			return nil, fmt.Errorf("events: line %d: bad value %q: %w", line, rec[cols["value"]], err)
		}

		out = append(out, ieeg.Event{Onset: onset, Duration: duration, Value: value})
	}
	return out, nil
}

// WriteTSV writes an events table in the same column convention.
func WriteTSV(w io.Writer, evs []ieeg.Event) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{"onset", "duration", "value"}); err != nil {
		return fmt.Errorf("events: writing header: %w", err)
	}
	for _, ev := range evs {
		row := []string{
			strconv.FormatFloat(ev.Onset, 'f', -1, 64),
			strconv.FormatFloat(ev.Duration, 'f', -1, 64),
			strconv.Itoa(ev.Value),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("events: writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
