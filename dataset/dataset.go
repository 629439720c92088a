// Package dataset defines the labeled data sets the experiment runs on.
//
// A DataSet is an ordered, immutable collection of observations, each a
// (covariate, binary outcome) pair. The only permitted mutation after
// construction is attaching derived per-observation columns (the base
// model's link scores), which is append-only: observations themselves
// are never edited or removed.
package dataset

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// DataSet holds parallel covariate and outcome columns for one
// population, plus optional derived columns.
type DataSet struct {
	covariate []float64
	outcome   []float64 // strictly 0 or 1

	// linkScores is the base model's link-scale score per observation.
	// Nil until attached; attached at most once.
	linkScores []float64
}

// New creates a DataSet from parallel covariate and outcome slices.
// Outcomes must be strictly binary (0 or 1). The slices are not copied;
// the caller must not retain them.
func New(covariate, outcome []float64) (*DataSet, error) {
	if len(covariate) == 0 {
		return nil, recalErrors.NewValueError("dataset.New", "empty data set")
	}
	if len(covariate) != len(outcome) {
		return nil, recalErrors.NewDimensionError("dataset.New", len(covariate), len(outcome), 0)
	}
	for i, y := range outcome {
		if y != 0 && y != 1 {
			return nil, recalErrors.NewValidationError("outcome",
				"must be binary (0 or 1)", map[string]interface{}{"index": i, "value": y})
		}
	}
	return &DataSet{covariate: covariate, outcome: outcome}, nil
}

// Len returns the number of observations.
func (d *DataSet) Len() int {
	return len(d.covariate)
}

// Covariate returns the covariate of observation i.
func (d *DataSet) Covariate(i int) float64 {
	return d.covariate[i]
}

// Outcome returns the outcome (0 or 1) of observation i.
func (d *DataSet) Outcome(i int) float64 {
	return d.outcome[i]
}

// Events returns the number of positive outcomes.
func (d *DataSet) Events() int {
	n := 0
	for _, y := range d.outcome {
		if y == 1 {
			n++
		}
	}
	return n
}

// EventRate returns the fraction of positive outcomes.
func (d *DataSet) EventRate() float64 {
	return float64(d.Events()) / float64(d.Len())
}

// DesignMatrix returns the n×1 covariate matrix for model fitting. The
// returned matrix shares no storage with the DataSet.
func (d *DataSet) DesignMatrix() *mat.Dense {
	n := d.Len()
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, d.covariate[i])
	}
	return x
}

// OutcomeVector returns the outcome column as a vector.
func (d *DataSet) OutcomeVector() *mat.VecDense {
	n := d.Len()
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y.SetVec(i, d.outcome[i])
	}
	return y
}

// SetLinkScores attaches the base model's link-scale scores as a derived
// column. The column can be attached only once; observations are never
// otherwise mutated.
func (d *DataSet) SetLinkScores(scores []float64) error {
	if d.linkScores != nil {
		return recalErrors.NewValueError("DataSet.SetLinkScores", "link scores already attached")
	}
	if len(scores) != d.Len() {
		return recalErrors.NewDimensionError("DataSet.SetLinkScores", d.Len(), len(scores), 0)
	}
	d.linkScores = scores
	return nil
}

// LinkScores returns the attached link-score column, or nil if none.
func (d *DataSet) LinkScores() []float64 {
	return d.linkScores
}

// LinkScoreMatrix returns the attached link scores as an n×1 design
// matrix for the calibration fit.
func (d *DataSet) LinkScoreMatrix() (*mat.Dense, error) {
	if d.linkScores == nil {
		return nil, recalErrors.NewValueError("DataSet.LinkScoreMatrix", "no link scores attached")
	}
	n := d.Len()
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, d.linkScores[i])
	}
	return x, nil
}

// Subset returns a new DataSet containing the observations at the given
// indices, in the given order. Attached derived columns are carried over.
func (d *DataSet) Subset(indices []int) *DataSet {
	cov := make([]float64, len(indices))
	out := make([]float64, len(indices))
	for j, i := range indices {
		cov[j] = d.covariate[i]
		out[j] = d.outcome[i]
	}
	sub := &DataSet{covariate: cov, outcome: out}
	if d.linkScores != nil {
		ls := make([]float64, len(indices))
		for j, i := range indices {
			ls[j] = d.linkScores[i]
		}
		sub.linkScores = ls
	}
	return sub
}

// Quartiles summarizes the distribution of a column.
type Quartiles struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// CovariateQuartiles returns the five-number summary of the covariate
// column.
func (d *DataSet) CovariateQuartiles() Quartiles {
	sorted := make([]float64, d.Len())
	copy(sorted, d.covariate)
	sort.Float64s(sorted)

	return Quartiles{
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
