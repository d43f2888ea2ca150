// Package plotting renders PSD and event-locked average figures. The
// pipeline never depends on rendering succeeding; callers log and move
// on when a figure fails to save.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cortical-data/ecog/internal/ieeg/epochs"
	"github.com/cortical-data/ecog/internal/ieeg/spectral"
)

var (
	meanColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	semColor  = color.RGBA{R: 31, G: 119, B: 180, A: 96}
	badColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePSD writes one PNG of all channel spectra (log10 power against
// frequency) to outputDir. Bad channels are drawn in red so they stand
// out during visual screening. Returns the file path written.
func SavePSD(psd *spectral.PSD, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Channel power spectra"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "log10 PSD (uV²/Hz)"

	for ci, ch := range psd.Channels {
		pts := make(plotter.XYs, 0, len(psd.Freqs))
		for i, f := range psd.Freqs {
			v := psd.Power[ci][i]
			if v <= 0 {
				continue
			}
			pts = append(pts, plotter.XY{X: f, Y: math.Log10(v)})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("building PSD line for %s: %w", ch.Name, err)
		}
		if ch.Bad {
			line.Color = badColor
		}
		p.Add(line)
		p.Legend.Add(ch.Name, line)
	}
	p.Legend.Top = true

	path := filepath.Join(outputDir, "psd.png")
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

// SaveEpochAverages writes one PNG per channel showing the trial mean
// with a ±1 SEM envelope around it. Returns the number of files written.
func SaveEpochAverages(set *epochs.EpochSet, averages []epochs.Average, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	times := set.Times()
	written := 0
	for _, avg := range averages {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s (n=%d trials)", avg.Channel.Name, set.Len())
		p.X.Label.Text = "Time from onset (s)"
		p.Y.Label.Text = "High-gamma amplitude (z)"

		mean := make(plotter.XYs, len(times))
		upper := make(plotter.XYs, len(times))
		lower := make(plotter.XYs, len(times))
		for t := range times {
			mean[t] = plotter.XY{X: times[t], Y: avg.Mean[t]}
			upper[t] = plotter.XY{X: times[t], Y: avg.Mean[t] + avg.SEM[t]}
			lower[t] = plotter.XY{X: times[t], Y: avg.Mean[t] - avg.SEM[t]}
		}

		meanLine, err := plotter.NewLine(mean)
		if err != nil {
			return written, fmt.Errorf("building mean line: %w", err)
		}
		meanLine.Color = meanColor
		meanLine.Width = vg.Points(1.5)

		upperLine, err := plotter.NewLine(upper)
		if err != nil {
			return written, fmt.Errorf("building SEM line: %w", err)
		}
		upperLine.Color = semColor

		lowerLine, err := plotter.NewLine(lower)
		if err != nil {
			return written, fmt.Errorf("building SEM line: %w", err)
		}
		lowerLine.Color = semColor

		p.Add(meanLine, upperLine, lowerLine)
		p.Legend.Add("mean", meanLine)
		p.Legend.Add("±1 SEM", upperLine)

		path := filepath.Join(outputDir, fmt.Sprintf("epochs_%s.png", avg.Channel.Name))
		if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
			return written, fmt.Errorf("saving %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
