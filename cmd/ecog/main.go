// Command ecog runs the iEEG preprocessing pipeline: load an EDF
// recording with its channel and event sidecars, inspect channel quality
// via power spectra, re-reference, extract the high-gamma analytic
// amplitude, and plot event-locked averages.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cortical-data/ecog/internal/config"
	"github.com/cortical-data/ecog/internal/edfio"
	"github.com/cortical-data/ecog/internal/fsutil"
	"github.com/cortical-data/ecog/internal/ieeg"
	"github.com/cortical-data/ecog/internal/ieeg/epochs"
	"github.com/cortical-data/ecog/internal/ieeg/events"
	"github.com/cortical-data/ecog/internal/ieeg/highgamma"
	"github.com/cortical-data/ecog/internal/ieeg/reference"
	"github.com/cortical-data/ecog/internal/ieeg/spectral"
	"github.com/cortical-data/ecog/internal/plotting"
	"github.com/cortical-data/ecog/internal/runstore"
)

const dbFileDefault = "ecog_runs.db"

var (
	configPath = flag.String("config", "", "Pipeline config JSON (see internal/config)")
	recording  = flag.String("recording", "", "EDF recording path (overrides config)")
	channels   = flag.String("channels", "", "Channels TSV sidecar path (overrides config)")
	eventsPath = flag.String("events", "", "Events TSV path (overrides config)")
	outDir     = flag.String("out", "", "Output directory (overrides config)")
	doPSD      = flag.Bool("psd", false, "Render per-channel power spectra")
	refScheme  = flag.String("reference", "", `Re-reference before processing: "car", "single:NAME", or "bipolar:A1-C1,A2-C2"`)
	doExtract  = flag.Bool("extract", false, "Extract the high-gamma envelope and checkpoint it")
	doEpochs   = flag.Bool("epochs", false, "Compute and plot event-locked averages (implies -extract)")
	force      = flag.Bool("force", false, "Overwrite existing output files")
	dbFile     = flag.String("db", dbFileDefault, "Run provenance database")
	listRuns   = flag.Int("runs", 0, "List the N most recent runs and exit")
)

func main() {
	flag.Parse()

	if *listRuns > 0 {
		if err := printRuns(*dbFile, *listRuns); err != nil {
			log.Fatalf("listing runs: %v", err)
		}
		return
	}

	cfg := &config.PipelineConfig{}
	if *configPath != "" {
		loaded, err := config.LoadPipelineConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	recPath := override(*recording, cfg.RecordingPath)
	if recPath == "" {
		log.Fatal("no recording: pass -recording or set recording_path in the config")
	}
	output := override(*outDir, cfg.OutputDir)
	if output == "" {
		output = cfg.GetOutputDir()
	}
	output = filepath.Join(output, time.Now().Format("20060102_150405"))

	fsys := fsutil.OSFileSystem{}

	rec, err := edfio.LoadRecording(fsys, recPath)
	if err != nil {
		log.Fatalf("loading recording: %v", err)
	}
	log.Printf("loaded %s: %d channels, %d samples at %g Hz",
		recPath, len(rec.Channels), rec.Samples(), rec.SampleRate)

	if chPath := override(*channels, cfg.ChannelsPath); chPath != "" {
		info, err := readChannels(fsys, chPath)
		if err != nil {
			log.Fatalf("loading channels sidecar: %v", err)
		}
		edfio.ApplyChannelInfo(rec, info)
		log.Printf("applied channel metadata from %s", chPath)
	}

	if evPath := override(*eventsPath, cfg.EventsPath); evPath != "" {
		evs, err := readEvents(fsys, evPath)
		if err != nil {
			log.Fatalf("loading events: %v", err)
		}
		rec.Events = evs
		log.Printf("loaded %d events from %s", len(evs), evPath)
	}

	explicitRef := false
	if *refScheme != "" {
		scheme, err := parseReference(*refScheme)
		if err != nil {
			log.Fatalf("parsing -reference: %v", err)
		}
		rec, err = reference.Apply(rec, scheme)
		if err != nil {
			log.Fatalf("re-referencing: %v", err)
		}
		explicitRef = true
		log.Printf("applied %s reference", strings.SplitN(*refScheme, ":", 2)[0])
	}

	if *doPSD {
		psd, err := spectral.Welch(rec, spectral.Options{MaxFreq: rec.Nyquist()})
		if err != nil {
			log.Fatalf("computing PSD: %v", err)
		}
		if path, err := plotting.SavePSD(psd, output); err != nil {
			log.Printf("warning: PSD plot failed: %v", err)
		} else {
			log.Printf("wrote %s", path)
		}
	}

	if !*doExtract && !*doEpochs {
		return
	}

	band, subBands, err := highgamma.Preset(cfg.GetBandPreset())
	if err != nil {
		log.Fatalf("resolving band preset: %v", err)
	}
	// An explicit -reference replaces the extractor's built-in common
	// average; re-referencing twice would distort the signal.
	hgCfg := highgamma.Config{
		Notch:        cfg.GetNotchFreqs(),
		CAR:          cfg.GetCAR() && !explicitRef,
		Band:         band,
		SubBands:     subBands,
		LogTransform: cfg.GetLogTransform(),
		ZScore:       cfg.GetZScore(),
		OutputRate:   cfg.GetOutputRate(),
	}

	sig, err := highgamma.Extract(rec, hgCfg)
	if err != nil {
		log.Fatalf("extracting high gamma: %v", err)
	}
	log.Printf("extracted envelope: %d channels, %d samples at %g Hz",
		len(sig.Channels), sig.Samples(), sig.SampleRate)

	meta := edfio.Meta{
		PatientID:   "sub-" + cfg.GetSubject(),
		RecordingID: strings.TrimSuffix(filepath.Base(recPath), filepath.Ext(recPath)) + " highgamma",
		StartTime:   time.Now(),
	}
	outEDF := filepath.Join(output, "highgamma.edf")
	if err := edfio.SaveDerived(fsys, outEDF, sig, meta, *force); err != nil {
		log.Fatalf("saving derived signal: %v (re-run with -force to overwrite)", err)
	}
	log.Printf("wrote %s", outEDF)

	if err := recordRun(*dbFile, cfg, recPath, rec, sig, hgCfg); err != nil {
		log.Printf("warning: recording run failed: %v", err)
	}

	if !*doEpochs {
		return
	}
	if len(sig.Events) == 0 {
		log.Fatal("epoching requested but the recording has no events")
	}

	set, err := epochs.Slice(sig, sig.Events, cfg.GetEpochTmin(), cfg.GetEpochTmax(), cfg.Labels)
	if err != nil {
		log.Fatalf("epoching: %v", err)
	}
	if set.Dropped > 0 {
		log.Printf("dropped %d events whose window fell outside the signal", set.Dropped)
	}
	averages, err := set.Average()
	if err != nil {
		log.Fatalf("averaging epochs: %v", err)
	}

	if n, err := plotting.SaveEpochAverages(set, averages, output); err != nil {
		log.Printf("warning: epoch plots failed after %d files: %v", n, err)
	} else {
		log.Printf("wrote %d epoch plots to %s", n, output)
	}

	psd, err := spectral.Welch(rec, spectral.Options{MaxFreq: rec.Nyquist()})
	if err != nil {
		log.Printf("warning: PSD for report failed: %v", err)
		psd = nil
	}
	if path, err := plotting.SaveHTMLReport(psd, set, averages, output); err != nil {
		log.Printf("warning: HTML report failed: %v", err)
	} else {
		log.Printf("wrote %s", path)
	}
}

func parseReference(s string) (reference.Scheme, error) {
	kind, arg, _ := strings.Cut(s, ":")
	switch kind {
	case "car":
		return reference.CommonAverage{}, nil
	case "single":
		if arg == "" {
			return nil, fmt.Errorf("single reference needs a channel name, e.g. single:G1")
		}
		return reference.SingleChannel{Name: arg}, nil
	case "bipolar":
		var anodes, cathodes []string
		for _, pair := range strings.Split(arg, ",") {
			anode, cathode, ok := strings.Cut(pair, "-")
			if !ok {
				return nil, fmt.Errorf("bad bipolar pair %q, want anode-cathode", pair)
			}
			anodes = append(anodes, anode)
			cathodes = append(cathodes, cathode)
		}
		if len(anodes) == 0 {
			return nil, fmt.Errorf("bipolar reference needs at least one pair, e.g. bipolar:G1-G2")
		}
		return reference.Bipolar{Anodes: anodes, Cathodes: cathodes}, nil
	default:
		return nil, fmt.Errorf("unknown reference scheme %q (want car, single:NAME, or bipolar:A-C,...)", kind)
	}
}

func override(flagValue string, cfgValue *string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfgValue != nil {
		return *cfgValue
	}
	return ""
}

func readChannels(fsys fsutil.FileSystem, path string) ([]edfio.ChannelInfo, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return edfio.ReadChannelsTSV(bytes.NewReader(data))
}

func readEvents(fsys fsutil.FileSystem, path string) ([]ieeg.Event, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return events.ReadTSV(bytes.NewReader(data))
}

func recordRun(dbPath string, cfg *config.PipelineConfig, recPath string, rec *ieeg.Recording, sig *ieeg.DerivedSignal, hgCfg highgamma.Config) error {
	store, err := runstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.RecordRun(runstore.Run{
		Subject:      cfg.GetSubject(),
		Session:      strOrEmpty(cfg.Session),
		Task:         strOrEmpty(cfg.Task),
		Recording:    recPath,
		Config:       hgCfg,
		ChannelCount: len(sig.Channels),
		InputRate:    rec.SampleRate,
		OutputRate:   sig.SampleRate,
		SampleCount:  sig.Samples(),
	})
	if err != nil {
		return err
	}
	log.Printf("recorded run %s in %s", id, dbPath)
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func printRuns(dbPath string, limit int) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no run database at %s", dbPath)
	}
	store, err := runstore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  sub-%s  %s  %d ch @ %g Hz -> %g Hz\n",
			r.CreatedAt.Format(time.RFC3339), r.ID[:8], r.Subject, r.Recording,
			r.ChannelCount, r.InputRate, r.OutputRate)
	}
	return nil
}
