package plotting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cortical-data/ecog/internal/ieeg/epochs"
	"github.com/cortical-data/ecog/internal/ieeg/spectral"
)

// SaveHTMLReport renders an interactive report with the channel spectra
// and, when available, the per-channel epoch averages. Returns the file
// path written.
func SaveHTMLReport(psd *spectral.PSD, set *epochs.EpochSet, averages []epochs.Average, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	if psd != nil {
		page.AddCharts(psdChart(psd))
	}
	if set != nil && len(averages) > 0 {
		page.AddCharts(epochChart(set, averages))
	}

	path := filepath.Join(outputDir, "report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return path, nil
}

func psdChart(psd *spectral.PSD) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Channel power spectra", Subtitle: fmt.Sprintf("%d channels", len(psd.Channels))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frequency (Hz)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "log10 PSD"}),
	)

	xs := make([]string, len(psd.Freqs))
	for i, f := range psd.Freqs {
		xs[i] = fmt.Sprintf("%.1f", f)
	}
	line.SetXAxis(xs)

	for ci, ch := range psd.Channels {
		data := make([]opts.LineData, len(psd.Freqs))
		for i := range psd.Freqs {
			v := psd.Power[ci][i]
			if v > 0 {
				data[i] = opts.LineData{Value: math.Log10(v)}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		name := ch.Name
		if ch.Bad {
			name += " (bad)"
		}
		line.AddSeries(name, data)
	}
	return line
}

func epochChart(set *epochs.EpochSet, averages []epochs.Average) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Event-locked high-gamma averages", Subtitle: fmt.Sprintf("n=%d trials", set.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time from onset (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amplitude"}),
	)

	times := set.Times()
	xs := make([]string, len(times))
	for i, t := range times {
		xs[i] = fmt.Sprintf("%.3f", t)
	}
	line.SetXAxis(xs)

	for _, avg := range averages {
		data := make([]opts.LineData, len(avg.Mean))
		for i, v := range avg.Mean {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(avg.Channel.Name, data)
	}
	return line
}
