// Package report renders an evaluation report for human and machine
// consumers. It is purely presentational: it consumes the evaluate
// package's structured output and never computes a metric itself.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"

	"github.com/creditlab/recal/evaluate"
	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// WriteText renders the report as console-style tables.
func WriteText(w io.Writer, r *evaluate.Report) error {
	if r == nil {
		return recalErrors.NewValueError("report.WriteText", "nil report")
	}

	p := &printer{w: w}

	p.printf("Model recalibration report\n")
	p.printf("==========================\n\n")

	p.printf("Populations\n")
	p.printf("  %-10s %10s %14s\n", "", "n", "default rate")
	p.printf("  %-10s %10d %13.4f%%\n", "industry", r.Industry.N, 100*r.Industry.DefaultRate)
	p.printf("  %-10s %10d %13.4f%%\n\n", "company", r.Company.N, 100*r.Company.DefaultRate)

	p.printf("Credit score quartiles\n")
	p.printf("  %-10s %9s %9s %9s %9s %9s\n", "", "min", "q1", "median", "q3", "max")
	p.quartiles("industry", r.Industry)
	p.quartiles("company", r.Company)
	p.printf("\n")

	p.printf("Coefficients (link scale)\n")
	p.printf("  %-22s intercept=%.6f  slope=%.6f\n", "base (industry)", r.BaseModel.Intercept, r.BaseModel.Slope)
	p.printf("  %-22s intercept=%.6f  slope=%.6f\n\n", "calibration (company)", r.CalibrationModel.Intercept, r.CalibrationModel.Slope)

	p.printf("Company split: train=%d (event rate %.4f%%), test=%d\n\n",
		r.TrainN, 100*r.TrainEventRate, r.TestN)

	p.printf("Discrimination (held-out company data)\n")
	p.printf("  %-14s AUC=%.6f\n", "calibrated", r.Calibrated.AUC)
	p.printf("  %-14s AUC=%.6f\n\n", "uncalibrated", r.Uncalibrated.AUC)

	p.printf("Log loss\n")
	p.printf("  %-22s %s\n", "calibrated", formatLoss(r.Calibrated.LogLoss))
	p.printf("  %-22s %s\n", "industry (uncalibrated)", formatLoss(r.Uncalibrated.LogLoss))
	p.printf("  %-22s %s\n", "null (mean rate)", formatLoss(r.Baselines.NullLogLoss))
	p.printf("  %-22s %s\n\n", "naive (always zero)", formatLoss(r.Baselines.NaiveLogLoss))

	p.printf("Brier score\n")
	p.printf("  %-22s %.6f\n", "calibrated", r.Calibrated.BrierScore)
	p.printf("  %-22s %.6f\n\n", "industry (uncalibrated)", r.Uncalibrated.BrierScore)

	p.decileTable("Calibrated decile calibration", r.Calibrated)
	p.decileTable("Uncalibrated decile calibration", r.Uncalibrated)

	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) quartiles(name string, s evaluate.PopulationSummary) {
	q := s.Covariate
	p.printf("  %-10s %9.3f %9.3f %9.3f %9.3f %9.3f\n", name, q.Min, q.Q1, q.Median, q.Q3, q.Max)
}

func (p *printer) decileTable(title string, e evaluate.ModelEvaluation) {
	p.printf("%s\n", title)
	p.printf("  %6s %7s %12s %12s\n", "decile", "count", "actual", "predicted")
	for _, bin := range e.DecileTable {
		p.printf("  %6d %7d %12.6f %12.6f\n", bin.Rank, bin.Count, bin.MeanOutcome, bin.MeanPredicted)
	}
	p.printf("\n")
}

func formatLoss(v evaluate.LossValue) string {
	f := float64(v)
	if math.IsInf(f, 1) {
		return "+Inf"
	}
	return fmt.Sprintf("%.6f", f)
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *evaluate.Report) error {
	if r == nil {
		return recalErrors.NewValueError("report.WriteJSON", "nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return recalErrors.Wrap(err, "encoding report")
	}
	return nil
}
