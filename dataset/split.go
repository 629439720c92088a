package dataset

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"

	recalErrors "github.com/creditlab/recal/pkg/errors"
)

// Split is an outcome-stratified train/test partition of a DataSet.
// Train and test are disjoint and together cover the full set, and the
// event rate of each side matches the full set's up to rounding.
type Split struct {
	Train *DataSet
	Test  *DataSet
}

// StratifiedSplit partitions ds into train and test subsets, stratifying
// on the outcome so the rare-event proportion is preserved on both sides.
// trainRatio is the fraction of each outcome class assigned to train,
// rounded per class.
//
// The split consumes exactly two shuffles from rng, in a fixed order:
// first the event indices, then the non-event indices. Reproducibility
// of the whole experiment depends on this draw order staying fixed.
func StratifiedSplit(ds *DataSet, trainRatio float64, rng *rand.Rand) (Split, error) {
	if ds == nil || ds.Len() == 0 {
		return Split{}, recalErrors.NewValueError("StratifiedSplit", "empty data set")
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		return Split{}, recalErrors.NewValidationError("trainRatio",
			"must be in (0, 1)", trainRatio)
	}

	var eventIdx, restIdx []int
	for i := 0; i < ds.Len(); i++ {
		if ds.Outcome(i) == 1 {
			eventIdx = append(eventIdx, i)
		} else {
			restIdx = append(restIdx, i)
		}
	}

	rng.Shuffle(len(eventIdx), func(i, j int) {
		eventIdx[i], eventIdx[j] = eventIdx[j], eventIdx[i]
	})
	rng.Shuffle(len(restIdx), func(i, j int) {
		restIdx[i], restIdx[j] = restIdx[j], restIdx[i]
	})

	nTrainEvents := int(math.Round(trainRatio * float64(len(eventIdx))))
	nTrainRest := int(math.Round(trainRatio * float64(len(restIdx))))

	trainIdx := append(append([]int{}, eventIdx[:nTrainEvents]...), restIdx[:nTrainRest]...)
	testIdx := append(append([]int{}, eventIdx[nTrainEvents:]...), restIdx[nTrainRest:]...)

	// Restore original observation order within each side so results do
	// not depend on the shuffle beyond membership.
	sort.Ints(trainIdx)
	sort.Ints(testIdx)

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return Split{}, recalErrors.NewDegenerateDataError("StratifiedSplit",
			"partition side is empty", nTrainEvents, len(trainIdx))
	}

	return Split{
		Train: ds.Subset(trainIdx),
		Test:  ds.Subset(testIdx),
	}, nil
}

// Validate checks that the training side can support a binary fit: it
// must contain at least one event and at least one non-event. op names
// the caller for error context.
func (s Split) Validate(op string) error {
	events := s.Train.Events()
	n := s.Train.Len()
	if events == 0 {
		return recalErrors.NewDegenerateDataError(op,
			"training partition has no events", events, n)
	}
	if events == n {
		return recalErrors.NewDegenerateDataError(op,
			"training partition has no non-events", events, n)
	}
	return nil
}
