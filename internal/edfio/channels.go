package edfio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cortical-data/ecog/internal/ieeg"
	"github.com/cortical-data/ecog/internal/monitoring"
)

// ChannelInfo is one row of the channels sidecar: the per-channel type
// and good/bad status recorded alongside the signal file.
type ChannelInfo struct {
	Name   string
	Type   ieeg.ChannelType
	Status string // "good" or "bad"
}

// ReadChannelsTSV parses a tab-separated channels sidecar with a header
// naming at least the name, type and status columns.
func ReadChannelsTSV(r io.Reader) ([]ChannelInfo, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("channels: reading header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(name)] = i
	}
	for _, name := range []string{"name", "type", "status"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("channels: missing column %q", name)
		}
	}

	var out []ChannelInfo
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("channels: line %d: %w", line, err)
		}
		out = append(out, ChannelInfo{
			Name:   rec[cols["name"]],
			Type:   parseChannelType(rec[cols["type"]]),
			Status: strings.ToLower(rec[cols["status"]]),
		})
	}
	return out, nil
}

func parseChannelType(s string) ieeg.ChannelType {
	switch strings.ToUpper(s) {
	case "ECOG":
		return ieeg.ChannelECoG
	case "SEEG":
		return ieeg.ChannelSEEG
	case "REF":
		return ieeg.ChannelReference
	default:
		return ieeg.ChannelOther
	}
}

// ApplyChannelInfo overwrites the recording's channel types and bad
// flags from the sidecar, matching rows by channel name. Sidecar rows
// with no matching channel are logged and skipped; channels absent from
// the sidecar keep their current metadata.
func ApplyChannelInfo(rec *ieeg.Recording, info []ChannelInfo) {
	for _, ci := range info {
		i, ok := rec.ChannelIndex(ci.Name)
		if !ok {
			monitoring.Logf("edfio: sidecar channel %q not in recording, skipping", ci.Name)
			continue
		}
		rec.Channels[i].Type = ci.Type
		rec.Channels[i].Bad = ci.Status == "bad"
	}
}
