package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// decileCount is the number of equal-count bins in a calibration table.
const decileCount = 10

// DecileBin is one row of a decile calibration table: the observations
// whose predicted probabilities fall in one of ten equal-count,
// rank-ordered bins.
type DecileBin struct {
	// Rank is the bin's position, 1 (lowest predictions) through 10.
	Rank int `json:"rank"`

	// Count is the number of observations in the bin.
	Count int `json:"count"`

	// MeanOutcome is the realized event rate within the bin.
	MeanOutcome float64 `json:"mean_outcome"`

	// MeanPredicted is the average predicted probability in the bin.
	MeanPredicted float64 `json:"mean_predicted"`
}

// DecileTable bins predictions into ten equal-count bins by ascending
// predicted probability and reports the realized versus predicted event
// rate per bin. A well calibrated model shows MeanOutcome tracking
// MeanPredicted across all ten bins.
//
// Ties in the predictions are broken by observation index, so the table
// is deterministic. Requires at least ten observations.
func DecileTable(yTrue, yPred *mat.VecDense) ([]DecileBin, error) {
	if err := validateBinaryPair("DecileTable", yTrue, yPred); err != nil {
		return nil, err
	}

	n := yTrue.Len()
	if n < decileCount {
		return nil, recalErrors.NewValueError("DecileTable",
			"need at least 10 observations for a decile table")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	bins := make([]DecileBin, decileCount)
	for d := 0; d < decileCount; d++ {
		lo := d * n / decileCount
		hi := (d + 1) * n / decileCount

		var sumOutcome, sumPred float64
		for _, idx := range order[lo:hi] {
			sumOutcome += yTrue.AtVec(idx)
			sumPred += yPred.AtVec(idx)
		}
		count := hi - lo
		bins[d] = DecileBin{
			Rank:          d + 1,
			Count:         count,
			MeanOutcome:   sumOutcome / float64(count),
			MeanPredicted: sumPred / float64(count),
		}
	}
	return bins, nil
}
