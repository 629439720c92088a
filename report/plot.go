package report

import (
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/creditlab/recal/evaluate"
	"github.com/creditlab/recal/metrics"
	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// SaveCalibrationPlots writes one calibration chart per model into dir:
// calibrated.png and uncalibrated.png. Each chart scatters the decile
// mean predicted probability against the decile mean observed rate,
// with the identity line as the perfect-calibration reference.
func SaveCalibrationPlots(dir string, r *evaluate.Report) error {
	if r == nil {
		return recalErrors.NewValueError("report.SaveCalibrationPlots", "nil report")
	}

	charts := []struct {
		filename string
		title    string
		table    []metrics.DecileBin
	}{
		{"calibrated.png", "Calibrated model: decile calibration", r.Calibrated.DecileTable},
		{"uncalibrated.png", "Industry model: decile calibration", r.Uncalibrated.DecileTable},
	}

	for _, c := range charts {
		path := filepath.Join(dir, c.filename)
		if err := SaveCalibrationPlot(path, c.title, c.table); err != nil {
			return recalErrors.Wrapf(err, "writing %s", path)
		}
	}
	return nil
}

// SaveCalibrationPlot writes a single decile actual-versus-predicted
// chart to path.
func SaveCalibrationPlot(path, title string, table []metrics.DecileBin) error {
	if len(table) == 0 {
		return recalErrors.NewValueError("report.SaveCalibrationPlot", "empty decile table")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Mean predicted probability"
	p.Y.Label.Text = "Observed default rate"

	pts := make(plotter.XYs, len(table))
	maxV := 0.0
	for i, bin := range table {
		pts[i].X = bin.MeanPredicted
		pts[i].Y = bin.MeanOutcome
		if bin.MeanPredicted > maxV {
			maxV = bin.MeanPredicted
		}
		if bin.MeanOutcome > maxV {
			maxV = bin.MeanOutcome
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Color = plotter.DefaultLineStyle.Color
	p.Add(scatter)
	p.Legend.Add("Deciles", scatter)

	identity := make(plotter.XYs, 2)
	identity[1].X = maxV
	identity[1].Y = maxV
	line, err := plotter.NewLine(identity)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(line)
	p.Legend.Add("Perfect calibration", line)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
