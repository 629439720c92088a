// Package calibrate rescales an industry-wide risk model to a company's
// own population.
//
// The base model is trained on a large pooled data set and carries most
// of the ranking signal, but its absolute default rates reflect the
// pooled population, not the company's. Calibration fixes that with a
// second, univariate logistic regression: company outcome on the base
// model's link-scale score, fit on a small stratified training slice of
// company data. The result is an affine rescaling of the base log-odds
// into the company's log-odds space; the base model is never refit.
package calibrate

import (
	"gonum.org/v1/gonum/mat"

	"golang.org/x/exp/rand"

	"github.com/creditlab/recal/dataset"
	"github.com/creditlab/recal/glm"
	recalErrors "github.com/creditlab/recal/pkg/errors"
	"github.com/creditlab/recal/pkg/log"
)

// DefaultTrainRatio is the fraction of company data used for the
// calibration fit. Deliberately small: the technique targets companies
// with few observed defaults of their own.
const DefaultTrainRatio = 0.1

// Calibrator fits a CalibratedModel from a base model and company data.
type Calibrator struct {
	// TrainRatio is the stratified train fraction of the company set.
	TrainRatio float64

	// Options are passed to the rescaling fit.
	Options []glm.Option

	logger log.Logger
}

// NewCalibrator creates a Calibrator with the default train ratio.
func NewCalibrator() *Calibrator {
	return &Calibrator{
		TrainRatio: DefaultTrainRatio,
		logger:     log.GetLoggerWithName("calibrate"),
	}
}

// Result bundles the calibrated model with the split that produced it,
// so the evaluator can score the held-out test side.
type Result struct {
	Model *CalibratedModel
	Split dataset.Split
}

// Calibrate runs the three calibration steps: stratified split of the
// company set, base-model link scoring of the training side, and the
// univariate rescaling fit. rng drives only the split.
//
// Fails with a DegenerateDataError when the training slice cannot
// support a binary fit (no events or no non-events), and with a
// ConvergenceError when the rescaling fit does not converge.
func (c *Calibrator) Calibrate(base *glm.LogisticRegression, company *dataset.DataSet, rng *rand.Rand) (*Result, error) {
	if base == nil || !base.IsFitted() {
		return nil, recalErrors.NewNotFittedError("base LogisticRegression", "Calibrate")
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("calibrate")
	}

	ratio := c.TrainRatio
	if ratio == 0 {
		ratio = DefaultTrainRatio
	}

	split, err := dataset.StratifiedSplit(company, ratio, rng)
	if err != nil {
		return nil, recalErrors.Wrap(err, "calibration split")
	}
	if err := split.Validate("Calibrator.Calibrate"); err != nil {
		return nil, err
	}

	c.logger.Info("Company data split",
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, split.Train.Len(),
		log.EventsKey, split.Train.Events(),
	)

	// Score the training side with the already-fitted base model. This
	// is strictly a read of the base model; nothing is re-estimated on
	// company data here.
	scores, err := base.LinkScores(split.Train.DesignMatrix())
	if err != nil {
		return nil, recalErrors.Wrap(err, "base model scoring")
	}
	if err := split.Train.SetLinkScores(scores); err != nil {
		return nil, recalErrors.Wrap(err, "attaching link scores")
	}

	X, err := split.Train.LinkScoreMatrix()
	if err != nil {
		return nil, recalErrors.Wrap(err, "calibration design matrix")
	}

	rescale := glm.NewLogisticRegression(c.Options...)
	if err := rescale.Fit(X, split.Train.OutcomeVector()); err != nil {
		return nil, recalErrors.Wrap(err, "calibration fit")
	}

	c.logger.Info("Calibration fitted",
		log.OperationKey, log.OperationFit,
		log.IterationsKey, rescale.NIter(),
	)

	return &Result{
		Model: &CalibratedModel{base: base, rescale: rescale},
		Split: split,
	}, nil
}

// CalibratedModel composes the base model with its fitted rescaling:
// calibrated log-odds = a + b * base_log_odds. Both parts are read-only.
type CalibratedModel struct {
	base    *glm.LogisticRegression
	rescale *glm.LogisticRegression
}

// RescaleIntercept returns the calibration intercept a.
func (m *CalibratedModel) RescaleIntercept() float64 {
	return m.rescale.Intercept()
}

// RescaleSlope returns the calibration slope b. A positive slope means
// calibration preserved the base model's risk ranking.
func (m *CalibratedModel) RescaleSlope() float64 {
	return m.rescale.Coefficients()[0]
}

// LinkScores returns the calibrated link-scale score for each row of
// the covariate design matrix X.
func (m *CalibratedModel) LinkScores(X mat.Matrix) ([]float64, error) {
	baseScores, err := m.base.LinkScores(X)
	if err != nil {
		return nil, err
	}
	return m.rescale.LinkScores(columnMatrix(baseScores))
}

// PredictProba returns calibrated response-scale probabilities for each
// row of the covariate design matrix X.
func (m *CalibratedModel) PredictProba(X mat.Matrix) ([]float64, error) {
	baseScores, err := m.base.LinkScores(X)
	if err != nil {
		return nil, err
	}
	return m.rescale.PredictProba(columnMatrix(baseScores))
}

// PredictProbaFromLinkScores applies only the rescaling step to
// precomputed base-model link scores.
func (m *CalibratedModel) PredictProbaFromLinkScores(scores []float64) ([]float64, error) {
	return m.rescale.PredictProba(columnMatrix(scores))
}

func columnMatrix(v []float64) *mat.Dense {
	x := mat.NewDense(len(v), 1, nil)
	for i, s := range v {
		x.Set(i, 0, s)
	}
	return x
}
