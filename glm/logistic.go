// Package glm implements binary logistic regression fit by maximum
// likelihood.
//
// The same fitter serves both model fits of the calibration experiment:
// the industry base model (outcome on credit score) and the company
// rescaling model (outcome on the base model's link score). Estimation
// minimizes the mean negative log-likelihood with L-BFGS
// (gonum.org/v1/gonum/optimize); failure to converge is a fatal, typed
// error rather than a silent degenerate coefficient vector.
package glm

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	coremodel "github.com/creditlab/recal/core/model"
	"github.com/creditlab/recal/core/parallel"
	recalErrors "github.com/creditlab/recal/pkg/errors"
	"github.com/creditlab/recal/pkg/log"
)

const (
	penaltyNone = "none"
	penaltyL2   = "l2"

	epsilonSmall = 1e-15

	// Row count above which scoring loops fan out across cores.
	scoreParallelThreshold = 10_000
)

// LogisticRegression is a binary logistic regression model. The zero
// value is not usable; construct with NewLogisticRegression. Models are
// fit once and read-only afterwards.
type LogisticRegression struct {
	state *coremodel.StateManager

	// Hyperparameters
	penalty      string  // "none" (plain MLE) or "l2"
	c            float64 // inverse regularization strength for l2
	fitIntercept bool
	maxIter      int
	tol          float64 // gradient threshold for convergence

	// Fitted parameters
	coef      []float64
	intercept float64
	nIter     int

	logger log.Logger
}

// Option is a functional option for LogisticRegression.
type Option func(*LogisticRegression)

// WithPenalty sets the regularization type ("none" or "l2").
func WithPenalty(penalty string) Option {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithC sets the inverse regularization strength for the l2 penalty.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithFitIntercept sets whether an intercept term is estimated.
func WithFitIntercept(fit bool) Option {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithMaxIter sets the iteration budget for the solver.
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithTol sets the gradient threshold for convergence.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// NewLogisticRegression creates an untrained binary logistic regression.
// The default configuration is an unpenalized maximum-likelihood fit
// with an intercept, matching a classical GLM.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		state:        coremodel.NewStateManager(),
		penalty:      penaltyNone,
		c:            1.0,
		fitIntercept: true,
		maxIter:      500,
		tol:          1e-6,
	}
	for _, opt := range opts {
		opt(lr)
	}

	lr.logger = log.GetLoggerWithName("glm").With(
		log.ModelNameKey, "LogisticRegression",
	)

	return lr
}

// Fit estimates the model on X (n×d) and binary y (n×1) by maximum
// likelihood. Initial coefficients are zero, so the fit is deterministic
// for deterministic inputs.
//
// Returns a DegenerateDataError when y contains a single class and a
// ConvergenceError when the solver exhausts its budget.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) (err error) {
	defer recalErrors.Recover(&err, "LogisticRegression.Fit")

	start := time.Now()
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return recalErrors.NewModelError("LogisticRegression.Fit", "empty data", recalErrors.ErrEmptyData)
	}
	if yRows != nSamples {
		return recalErrors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return recalErrors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	lr.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)

	yBinary := make([]float64, nSamples)
	events := 0
	for i := 0; i < nSamples; i++ {
		v := y.At(i, 0)
		if v != 0 && v != 1 {
			return recalErrors.NewValidationError("y", "outcomes must be binary (0 or 1)", v)
		}
		yBinary[i] = v
		if v == 1 {
			events++
		}
	}
	if events == 0 || events == nSamples {
		return recalErrors.NewDegenerateDataError("LogisticRegression.Fit",
			"outcome has zero variance; a single-class set cannot be fit", events, nSamples)
	}

	// Parameter vector layout: [w_0..w_{d-1}, b] when an intercept is
	// estimated, weights only otherwise.
	pDim := nFeatures
	if lr.fitIntercept {
		pDim++
	}
	x0 := make([]float64, pDim) // zero start keeps the fit deterministic

	xD := mat.DenseCopyOf(X)

	lambda := 0.0
	if lr.penalty == penaltyL2 {
		if lr.c <= 0 {
			return recalErrors.NewValidationError("C", "must be > 0 for l2 penalty", lr.c)
		}
		lambda = 1.0 / lr.c
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			w := theta[:nFeatures]
			b := 0.0
			if lr.fitIntercept {
				b = theta[nFeatures]
			}
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				p := clampProbability(stableSigmoid(z))
				loss += -yBinary[i]*math.Log(p) - (1.0-yBinary[i])*math.Log(1.0-p)
			}
			loss /= float64(nSamples)
			if lambda > 0 {
				reg := 0.0
				for j := 0; j < nFeatures; j++ {
					reg += w[j] * w[j]
				}
				loss += 0.5 * lambda * reg
			}
			return loss
		},
		Grad: func(grad, theta []float64) {
			w := theta[:nFeatures]
			b := 0.0
			if lr.fitIntercept {
				b = theta[nFeatures]
			}
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * xD.At(i, j)
				}
				diff := stableSigmoid(z) - yBinary[i]
				for j := 0; j < nFeatures; j++ {
					grad[j] += diff * xD.At(i, j)
				}
				if lr.fitIntercept {
					grad[nFeatures] += diff
				}
			}
			invN := 1.0 / float64(nSamples)
			for j := range grad {
				grad[j] *= invN
			}
			if lambda > 0 {
				for j := 0; j < nFeatures; j++ {
					grad[j] += lambda * w[j]
				}
			}
		},
	}

	settings := optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}
	result, optErr := optimize.Minimize(prob, x0, &settings, &optimize.LBFGS{})
	if optErr != nil {
		return recalErrors.NewConvergenceError("LogisticRegression.Fit", lr.maxIter, optErr)
	}
	if result.Status == optimize.IterationLimit {
		return recalErrors.NewConvergenceError("LogisticRegression.Fit",
			result.Stats.MajorIterations, nil)
	}

	lr.coef = make([]float64, nFeatures)
	copy(lr.coef, result.X[:nFeatures])
	if lr.fitIntercept {
		lr.intercept = result.X[nFeatures]
	}
	lr.nIter = result.Stats.MajorIterations

	lr.state.SetFitted()
	lr.state.SetDimensions(nFeatures, nSamples)

	lr.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.IterationsKey, lr.nIter,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// LinkScores returns the link-scale linear predictor for each row of X:
// intercept + dot(coefficients, x). This is the pre-sigmoid log-odds
// used both for scoring and as the calibration feature.
func (lr *LogisticRegression) LinkScores(X mat.Matrix) ([]float64, error) {
	if !lr.state.IsFitted() {
		return nil, recalErrors.NewNotFittedError("LogisticRegression", "LinkScores")
	}

	n, d := X.Dims()
	if d != lr.state.NFeatures() {
		return nil, recalErrors.NewDimensionError("LogisticRegression.LinkScores",
			lr.state.NFeatures(), d, 1)
	}

	scores := make([]float64, n)
	parallel.ParallelizeWithThreshold(n, scoreParallelThreshold, func(s, e int) {
		for i := s; i < e; i++ {
			z := lr.intercept
			for j := 0; j < d; j++ {
				z += lr.coef[j] * X.At(i, j)
			}
			scores[i] = z
		}
	})

	return scores, nil
}

// PredictProba returns response-scale probabilities, sigmoid applied to
// the link scores.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	scores, err := lr.LinkScores(X)
	if err != nil {
		return nil, recalErrors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	for i, z := range scores {
		scores[i] = stableSigmoid(z)
	}
	return scores, nil
}

// Predict returns 0/1 class labels at the 0.5 probability threshold.
func (lr *LogisticRegression) Predict(X mat.Matrix) ([]float64, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range probs {
		if p >= 0.5 {
			probs[i] = 1
		} else {
			probs[i] = 0
		}
	}
	return probs, nil
}

// Coefficients returns a copy of the fitted coefficient vector.
func (lr *LogisticRegression) Coefficients() []float64 {
	out := make([]float64, len(lr.coef))
	copy(out, lr.coef)
	return out
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// NIter returns the solver iterations consumed by Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// IsFitted reports whether the model has been trained.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// stableSigmoid computes sigmoid(z) without overflowing for extreme z.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// clampProbability keeps p inside (0, 1) to protect log() in the
// likelihood.
func clampProbability(p float64) float64 {
	if p < epsilonSmall {
		return epsilonSmall
	}
	if p > 1-epsilonSmall {
		return 1 - epsilonSmall
	}
	return p
}
