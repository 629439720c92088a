package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// BrierScore calculates the mean squared difference between predicted
// probabilities and binary outcomes. Unlike log loss it is bounded
// ([0, 1], lower is better) and needs no clamping, which makes it a
// useful companion calibration metric when a baseline predicts exactly
// 0 or 1.
func BrierScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validateBinaryPair("BrierScore", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	sum := 0.0
	for i := 0; i < n; i++ {
		d := yPred.AtVec(i) - yTrue.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}
