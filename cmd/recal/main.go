// Command recal runs the industry-to-company recalibration experiment
// end to end: simulate both populations, fit the industry model,
// recalibrate it on a stratified company training split, and print the
// held-out evaluation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/creditlab/recal/evaluate"
	"github.com/creditlab/recal/experiment"
	"github.com/creditlab/recal/pkg/log"
	"github.com/creditlab/recal/report"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (defaults used when empty)")
		seed       = flag.Uint64("seed", 0, "override the random seed (0 keeps the config value)")
		trainRatio = flag.Float64("train-ratio", 0, "override the company train fraction (0 keeps the config value)")
		jsonOut    = flag.Bool("json", false, "emit the report as JSON instead of text tables")
		plotDir    = flag.String("plot-dir", "", "directory to write calibration charts into (skipped when empty)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log.SetDebug(*debug)
	logger := log.GetLoggerWithName("recal")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("Loading config failed", log.ErrorKey, err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *trainRatio != 0 {
		cfg.TrainRatio = *trainRatio
	}

	rep, err := experiment.Run(cfg)
	if err != nil {
		logger.Error("Experiment failed",
			log.StageKey, experiment.FailedStage(err),
			log.ErrorKey, err,
		)
		os.Exit(1)
	}

	if err := writeReport(rep, *jsonOut); err != nil {
		logger.Error("Writing report failed", log.ErrorKey, err)
		os.Exit(1)
	}

	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			logger.Error("Creating plot directory failed", log.ErrorKey, err)
			os.Exit(1)
		}
		if err := report.SaveCalibrationPlots(*plotDir, rep); err != nil {
			logger.Error("Writing calibration charts failed", log.ErrorKey, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "calibration charts written to %s\n", *plotDir)
	}
}

func loadConfig(path string) (experiment.Config, error) {
	if path == "" {
		return experiment.Default(), nil
	}
	return experiment.Load(path)
}

func writeReport(rep *evaluate.Report, asJSON bool) error {
	if asJSON {
		return report.WriteJSON(os.Stdout, rep)
	}
	return report.WriteText(os.Stdout, rep)
}
