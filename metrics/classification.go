// Package metrics implements the discrimination and calibration metrics
// the evaluator reports: ROC AUC, binary log loss (with an explicit
// probability-clamping policy), the Brier score and decile calibration
// tables.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// validateBinaryPair checks the common preconditions of every metric:
// non-nil, non-empty, equal-length vectors with a strictly binary yTrue.
func validateBinaryPair(op string, yTrue, yPred *mat.VecDense) error {
	if yTrue == nil || yPred == nil {
		return recalErrors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return recalErrors.NewValueError(op, "input vectors cannot be empty")
	}
	if n != yPred.Len() {
		return recalErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	for i := 0; i < n; i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return recalErrors.NewValidationError("yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", v, i), v)
		}
	}
	return nil
}

// AUC calculates the area under the ROC curve for binary outcomes.
//
// The AUC is the probability that a randomly chosen positive is ranked
// above a randomly chosen negative. 0.5 is random, 1.0 is perfect. Tied
// scores contribute half credit via the trapezoid rule. When yTrue
// contains a single class the AUC is undefined and 0.5 is returned.
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateBinaryPair("AUC", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	totalPos, totalNeg := 0.0, 0.0
	for i := 0; i < n; i++ {
		pairs[i] = pair{score: yPred.AtVec(i), label: yTrue.AtVec(i)}
		if pairs[i].label == 1 {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return 0.5, nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	// Walk thresholds from the highest score down, emitting one ROC
	// point per distinct score, then integrate with the trapezoid rule.
	var tprs, fprs []float64
	tprs = append(tprs, 0)
	fprs = append(fprs, 0)

	tp, fp := 0.0, 0.0
	for i, p := range pairs {
		if i > 0 && p.score != pairs[i-1].score {
			tprs = append(tprs, tp/totalPos)
			fprs = append(fprs, fp/totalNeg)
		}
		if p.label == 1 {
			tp++
		} else {
			fp++
		}
	}
	tprs = append(tprs, 1)
	fprs = append(fprs, 1)

	auc := 0.0
	for i := 1; i < len(fprs); i++ {
		auc += (fprs[i] - fprs[i-1]) * (tprs[i] + tprs[i-1]) / 2
	}
	return auc, nil
}

// defaultLogLossEpsilon is the clamp applied to predicted probabilities
// before taking logs, matching the common scikit-learn policy.
const defaultLogLossEpsilon = 1e-15

type logLossConfig struct {
	epsilon float64
	clamp   bool
}

// LogLossOption configures the probability-clamping policy of
// BinaryLogLoss and ConstantLogLoss.
type LogLossOption func(*logLossConfig)

// WithEpsilon sets the clamp width: probabilities are limited to
// [epsilon, 1-epsilon] before taking logs.
func WithEpsilon(epsilon float64) LogLossOption {
	return func(c *logLossConfig) { c.epsilon = epsilon }
}

// WithoutClamping disables probability clamping entirely. A certain
// wrong prediction (p=0 against an actual positive, or p=1 against an
// actual negative) then yields +Inf loss. This is deliberate for the
// always-zero naive baseline, whose infinite loss is the honest answer.
func WithoutClamping() LogLossOption {
	return func(c *logLossConfig) { c.clamp = false }
}

// BinaryLogLoss calculates the mean negative log-likelihood of binary
// outcomes under predicted probabilities. By default probabilities are
// clamped to [1e-15, 1-1e-15]; see WithoutClamping and WithEpsilon.
func BinaryLogLoss(yTrue, yPred *mat.VecDense, opts ...LogLossOption) (float64, error) {
	if err := validateBinaryPair("BinaryLogLoss", yTrue, yPred); err != nil {
		return 0, err
	}

	cfg := logLossConfig{epsilon: defaultLogLossEpsilon, clamp: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := yTrue.Len()
	loss := 0.0
	for i := 0; i < n; i++ {
		p := yPred.AtVec(i)
		if cfg.clamp {
			if p < cfg.epsilon {
				p = cfg.epsilon
			} else if p > 1-cfg.epsilon {
				p = 1 - cfg.epsilon
			}
		}
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// ConstantLogLoss calculates the log loss of a constant predictor: every
// observation is assigned probability p. Used for the null (mean-rate)
// and naive (always zero) baselines.
func ConstantLogLoss(yTrue *mat.VecDense, p float64, opts ...LogLossOption) (float64, error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, recalErrors.NewValueError("ConstantLogLoss", "input vector cannot be nil or empty")
	}
	if p < 0 || p > 1 {
		return 0, recalErrors.NewValidationError("p",
			fmt.Sprintf("must be a probability in [0, 1], got %f", p), p)
	}

	yPred := mat.NewVecDense(yTrue.Len(), nil)
	for i := 0; i < yTrue.Len(); i++ {
		yPred.SetVec(i, p)
	}
	return BinaryLogLoss(yTrue, yPred, opts...)
}
