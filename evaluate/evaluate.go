// Package evaluate scores the base and calibrated models on held-out
// company data and assembles the experiment's structured report.
//
// Discrimination is measured with ROC AUC, calibration with decile
// actual-versus-predicted tables, log loss and the Brier score. Both
// models are compared against two baselines: the null model (constant at
// the training mean rate) and the naive model (constant zero). The
// naive baseline's log loss is computed unclamped, so it is reported as
// +Inf whenever the test set contains any default at all.
package evaluate

import (
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/recal/calibrate"
	"github.com/creditlab/recal/dataset"
	"github.com/creditlab/recal/glm"
	"github.com/creditlab/recal/metrics"
	recalErrors "github.com/creditlab/recal/pkg/errors"
	"github.com/creditlab/recal/pkg/log"
)

// LossValue is a log-loss figure that may legitimately be +Inf (the
// unclamped naive baseline). It marshals to the string "Infinity" in
// that case, since JSON has no representation for infinities.
type LossValue float64

// MarshalJSON renders finite losses as numbers and infinities as
// strings.
func (v LossValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsInf(f, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(f, -1) {
		return []byte(`"-Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// Coefficients is a fitted (intercept, slope) pair from one of the two
// univariate logistic fits.
type Coefficients struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// PopulationSummary describes one simulated population.
type PopulationSummary struct {
	N           int               `json:"n"`
	DefaultRate float64           `json:"default_rate"`
	Covariate   dataset.Quartiles `json:"covariate_quartiles"`
}

// ModelEvaluation holds the per-model test-set metrics.
type ModelEvaluation struct {
	AUC         float64             `json:"auc"`
	LogLoss     LossValue           `json:"log_loss"`
	BrierScore  float64             `json:"brier_score"`
	DecileTable []metrics.DecileBin `json:"decile_table"`
}

// Baselines holds the constant-predictor reference losses.
type Baselines struct {
	// NullLogLoss is the loss of predicting the training mean rate
	// everywhere.
	NullLogLoss LossValue `json:"null_log_loss"`

	// NaiveLogLoss is the loss of predicting zero everywhere, computed
	// without clamping: +Inf whenever the test set has any event.
	NaiveLogLoss LossValue `json:"naive_log_loss"`
}

// Report is the experiment's complete structured output. It is plain
// data: rendering (text, JSON, plots) lives in the report package.
type Report struct {
	Industry PopulationSummary `json:"industry"`
	Company  PopulationSummary `json:"company"`

	BaseModel        Coefficients `json:"base_model"`
	CalibrationModel Coefficients `json:"calibration_model"`

	TrainN         int     `json:"train_n"`
	TestN          int     `json:"test_n"`
	TrainEventRate float64 `json:"train_event_rate"`

	Calibrated   ModelEvaluation `json:"calibrated"`
	Uncalibrated ModelEvaluation `json:"uncalibrated"`
	Baselines    Baselines       `json:"baselines"`
}

// Inputs collects everything the evaluator scores.
type Inputs struct {
	Industry *dataset.DataSet
	Company  *dataset.DataSet

	Base        *glm.LogisticRegression
	Calibration *calibrate.Result
}

// Evaluate scores both models on the held-out company-test partition
// and fills the full report.
func Evaluate(in Inputs) (*Report, error) {
	if in.Base == nil || !in.Base.IsFitted() {
		return nil, recalErrors.NewNotFittedError("base LogisticRegression", "Evaluate")
	}
	if in.Calibration == nil || in.Calibration.Model == nil {
		return nil, recalErrors.NewValueError("Evaluate", "calibration result is required")
	}
	if in.Industry == nil || in.Company == nil {
		return nil, recalErrors.NewValueError("Evaluate", "industry and company data sets are required")
	}

	logger := log.GetLoggerWithName("evaluate")
	start := time.Now()

	split := in.Calibration.Split
	test := split.Test
	yTrue := test.OutcomeVector()
	X := test.DesignMatrix()

	// Base-model link scores on the test side, computed once and shared
	// by both scored columns.
	linkScores, err := in.Base.LinkScores(X)
	if err != nil {
		return nil, recalErrors.Wrap(err, "scoring test partition")
	}
	if err := test.SetLinkScores(linkScores); err != nil {
		return nil, recalErrors.Wrap(err, "attaching test link scores")
	}

	industryProbs := make([]float64, len(linkScores))
	for i, z := range linkScores {
		industryProbs[i] = sigmoid(z)
	}

	calibratedProbs, err := in.Calibration.Model.PredictProbaFromLinkScores(linkScores)
	if err != nil {
		return nil, recalErrors.Wrap(err, "calibrated scoring")
	}

	calibratedEval, err := evaluateModel(yTrue, calibratedProbs)
	if err != nil {
		return nil, recalErrors.Wrap(err, "calibrated model metrics")
	}
	uncalibratedEval, err := evaluateModel(yTrue, industryProbs)
	if err != nil {
		return nil, recalErrors.Wrap(err, "uncalibrated model metrics")
	}

	trainRate := split.Train.EventRate()
	nullLoss, err := metrics.ConstantLogLoss(yTrue, trainRate)
	if err != nil {
		return nil, recalErrors.Wrap(err, "null baseline")
	}
	naiveLoss, err := metrics.ConstantLogLoss(yTrue, 0, metrics.WithoutClamping())
	if err != nil {
		return nil, recalErrors.Wrap(err, "naive baseline")
	}

	report := &Report{
		Industry: summarize(in.Industry),
		Company:  summarize(in.Company),
		BaseModel: Coefficients{
			Intercept: in.Base.Intercept(),
			Slope:     in.Base.Coefficients()[0],
		},
		CalibrationModel: Coefficients{
			Intercept: in.Calibration.Model.RescaleIntercept(),
			Slope:     in.Calibration.Model.RescaleSlope(),
		},
		TrainN:         split.Train.Len(),
		TestN:          test.Len(),
		TrainEventRate: trainRate,
		Calibrated:     calibratedEval,
		Uncalibrated:   uncalibratedEval,
		Baselines: Baselines{
			NullLogLoss:  LossValue(nullLoss),
			NaiveLogLoss: LossValue(naiveLoss),
		},
	}

	logger.Info("Evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, test.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return report, nil
}

func evaluateModel(yTrue *mat.VecDense, probs []float64) (ModelEvaluation, error) {
	yPred := mat.NewVecDense(len(probs), probs)

	auc, err := metrics.AUC(yTrue, yPred)
	if err != nil {
		return ModelEvaluation{}, err
	}
	loss, err := metrics.BinaryLogLoss(yTrue, yPred)
	if err != nil {
		return ModelEvaluation{}, err
	}
	brier, err := metrics.BrierScore(yTrue, yPred)
	if err != nil {
		return ModelEvaluation{}, err
	}
	table, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		return ModelEvaluation{}, err
	}

	return ModelEvaluation{
		AUC:         auc,
		LogLoss:     LossValue(loss),
		BrierScore:  brier,
		DecileTable: table,
	}, nil
}

func summarize(ds *dataset.DataSet) PopulationSummary {
	return PopulationSummary{
		N:           ds.Len(),
		DefaultRate: ds.EventRate(),
		Covariate:   ds.CovariateQuartiles(),
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}
