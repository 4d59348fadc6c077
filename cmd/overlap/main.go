// Command overlap runs the PFTS TCBOC auto-overlap procedure. In sim mode it
// drives simulated devices, which is useful for commissioning the tuning
// parameters without beam; otherwise it talks to the delay stage and
// digitizer over their serial ports.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/slactjohnson/pfts-overlap/internal/config"
	"github.com/slactjohnson/pfts-overlap/internal/device"
	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
	"github.com/slactjohnson/pfts-overlap/internal/overlap"
	"github.com/slactjohnson/pfts-overlap/internal/store"
	"github.com/slactjohnson/pfts-overlap/internal/units"
	"github.com/slactjohnson/pfts-overlap/internal/version"
)

var (
	simMode    = flag.Bool("sim", false, "Run against simulated devices")
	configPath = flag.String("config", "", "Path to tuning config JSON (defaults apply if empty)")
	dbFile     = flag.String("db", "overlap_runs.db", "Run history database (empty to disable)")
	plotFile   = flag.String("plot", "", "Write a scan diagnostic PNG to this path")
	stagePort  = flag.String("stage-port", "/dev/ttyUSB0", "Delay stage serial port (ignored in sim mode)")
	digiPort   = flag.String("digi-port", "/dev/ttyUSB1", "Digitizer serial port (ignored in sim mode)")
	lowPs      = flag.Float64("low", math.NaN(), "Search range low bound in ps (overrides config)")
	highPs     = flag.Float64("high", math.NaN(), "Search range high bound in ps (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug tracing")
	showVer    = flag.Bool("version", false, "Print build information and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println("overlap", version.String())
		os.Exit(0)
	}
	monitoring.SetVerbose(*verbose)

	path := *configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}
	cfg := config.EmptyTuningConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadTuningConfig(path)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		monitoring.Debugf("loaded tuning config from %s", path)
	}
	if !math.IsNaN(*lowPs) {
		cfg.SearchLowPs = lowPs
	}
	if !math.IsNaN(*highPs) {
		cfg.SearchHighPs = highPs
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var (
		stage  device.DelayStage
		mon1   device.WaveformSource
		mon2   device.WaveformSource
		errSig device.WaveformSource
		gauge  device.BufferGauge
	)
	if *simMode {
		stage, mon1, mon2, errSig, gauge = simDevices(cfg)
		log.Printf("running against simulated devices")
	} else {
		sp, err := device.OpenStage(*stagePort, cfg.GetBounceCount())
		if err != nil {
			log.Fatalf("failed to open delay stage: %v", err)
		}
		defer sp.Close()

		digi, err := device.OpenDigitizer(*digiPort)
		if err != nil {
			log.Fatalf("failed to open digitizer: %v", err)
		}
		defer digi.Close()

		stage = sp
		mon1 = digi.Channel(0)
		mon2 = digi.Channel(1)
		errSig = digi.Channel(2)
		gauge = digi
	}

	var runs *store.Store
	if *dbFile != "" {
		var err error
		runs, err = store.NewStore(*dbFile)
		if err != nil {
			log.Fatalf("failed to open run database: %v", err)
		}
		defer runs.Close()
	}

	aligner := overlap.NewAligner(stage, mon1, mon2, errSig, gauge, cfg)
	run := store.NewRun()

	res, err := aligner.Run()
	if err != nil {
		run.Outcome = err.Error()
		if runs != nil {
			if dbErr := runs.RecordRun(run); dbErr != nil {
				log.Printf("failed to record run: %v", dbErr)
			}
		}
		log.Fatalf("auto-overlap failed: %v", err)
	}

	run.Outcome = "ok"
	run.ZeroSec = res.ZeroSec
	run.Curve = res.Curve
	if runs != nil {
		if err := runs.RecordRun(run); err != nil {
			log.Printf("failed to record run: %v", err)
		}
	}
	if *plotFile != "" {
		if err := overlap.SaveCurvePlot(res.Curve, res.Fit, *plotFile); err != nil {
			log.Printf("failed to save plot: %v", err)
		} else {
			log.Printf("scan plot written to %s", *plotFile)
		}
	}

	log.Printf("auto-overlap complete, delay parked at %s", units.FormatDelay(res.ZeroSec))
}

// simDevices builds a simulated beamline: monitors that light up within a
// couple of picoseconds of the overlap point, and an error channel whose
// integrated signal crosses zero at 0.3ps.
func simDevices(cfg *config.TuningConfig) (device.DelayStage, device.WaveformSource, device.WaveformSource, device.WaveformSource, device.BufferGauge) {
	const (
		recordLen = 40
		capacity  = 256
		d0        = 0.3e-12
	)
	stage := device.NewSimStage(0)
	threshold := cfg.GetMonitorThreshold()

	mon := func(delay float64) []float64 {
		out := make([]float64, capacity)
		level := 0.1 * threshold
		if math.Abs(delay-d0) < 2e-12 {
			level = 1.2 * threshold
		}
		out[recordLen/2] = level
		return out
	}
	mon1 := &device.SimWaveform{Stage: stage, Generate: mon}
	mon2 := &device.SimWaveform{Stage: stage, Generate: mon}

	errSig := &device.SimWaveform{Stage: stage, Generate: func(delay float64) []float64 {
		out := make([]float64, capacity)
		level := math.Tanh((delay - d0) / 1e-12)
		for i := cfg.GetBaselineSamples(); i < recordLen; i++ {
			out[i] = level
		}
		return out
	}}

	return stage, mon1, mon2, errSig, &device.SimGauge{Length: recordLen}
}
