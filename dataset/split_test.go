package dataset

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"

	recalErrors "github.com/creditlab/recal/pkg/errors"
)

func makeRareEventSet(t *testing.T, n int, rate float64) *DataSet {
	t.Helper()

	cov := make([]float64, n)
	out := make([]float64, n)
	events := int(rate * float64(n))
	for i := 0; i < n; i++ {
		cov[i] = float64(i)
		if i < events {
			out[i] = 1
		}
	}

	ds, err := New(cov, out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ds
}

func TestStratifiedSplitInvariants(t *testing.T) {
	const n = 10000
	ds := makeRareEventSet(t, n, 0.05)
	rng := rand.New(rand.NewSource(1))

	split, err := StratifiedSplit(ds, 0.1, rng)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	// Partition: sizes add up.
	if split.Train.Len()+split.Test.Len() != n {
		t.Errorf("|train| + |test| = %d, want %d", split.Train.Len()+split.Test.Len(), n)
	}

	// Stratification: per-class counts are rounded per side.
	wantTrainEvents := int(math.Round(0.1 * float64(ds.Events())))
	if split.Train.Events() != wantTrainEvents {
		t.Errorf("train events: got %d, want %d", split.Train.Events(), wantTrainEvents)
	}
	if split.Train.Events()+split.Test.Events() != ds.Events() {
		t.Error("events must be conserved across the partition")
	}

	// Event rates on both sides stay close to the full-set rate.
	full := ds.EventRate()
	for name, side := range map[string]*DataSet{"train": split.Train, "test": split.Test} {
		if math.Abs(side.EventRate()-full) > 0.01 {
			t.Errorf("%s event rate %f drifted from full-set rate %f", name, side.EventRate(), full)
		}
	}
}

func TestStratifiedSplitDisjoint(t *testing.T) {
	ds := makeRareEventSet(t, 1000, 0.1)
	rng := rand.New(rand.NewSource(7))

	split, err := StratifiedSplit(ds, 0.3, rng)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	// Covariates are unique in makeRareEventSet, so membership can be
	// checked through them.
	seen := make(map[float64]bool, ds.Len())
	for i := 0; i < split.Train.Len(); i++ {
		seen[split.Train.Covariate(i)] = true
	}
	for i := 0; i < split.Test.Len(); i++ {
		if seen[split.Test.Covariate(i)] {
			t.Fatalf("observation %f present in both partitions", split.Test.Covariate(i))
		}
		seen[split.Test.Covariate(i)] = true
	}
	if len(seen) != ds.Len() {
		t.Errorf("partition does not cover the full set: %d of %d", len(seen), ds.Len())
	}
}

func TestStratifiedSplitDeterminism(t *testing.T) {
	ds := makeRareEventSet(t, 2000, 0.05)

	a, err := StratifiedSplit(ds, 0.1, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	b, err := StratifiedSplit(ds, 0.1, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	if a.Train.Len() != b.Train.Len() {
		t.Fatal("same seed must produce same partition sizes")
	}
	for i := 0; i < a.Train.Len(); i++ {
		if a.Train.Covariate(i) != b.Train.Covariate(i) {
			t.Fatalf("same seed must produce identical train membership, diverged at %d", i)
		}
	}
}

func TestStratifiedSplitInvalidRatio(t *testing.T) {
	ds := makeRareEventSet(t, 100, 0.1)
	rng := rand.New(rand.NewSource(1))

	for _, ratio := range []float64{0, 1, -0.5, 1.5} {
		if _, err := StratifiedSplit(ds, ratio, rng); err == nil {
			t.Errorf("ratio %f should be rejected", ratio)
		}
	}
}

func TestStratifiedSplitTinySet(t *testing.T) {
	// n=5 with ratio 0.1 rounds the train side to zero observations.
	ds := makeRareEventSet(t, 5, 0.2)
	rng := rand.New(rand.NewSource(1))

	_, err := StratifiedSplit(ds, 0.1, rng)
	if err == nil {
		t.Fatal("tiny set with small ratio should produce a degenerate-split error")
	}
	if !errors.Is(err, recalErrors.ErrDegenerateData) {
		t.Errorf("expected ErrDegenerateData, got %v", err)
	}
}

func TestValidateDegenerateTrain(t *testing.T) {
	// 10 observations, 1 event, ratio 0.5: the lone event may land in
	// train or not depending on rounding; force the no-event case by
	// using a set with one event and ratio that rounds its train share
	// to zero.
	cov := make([]float64, 20)
	out := make([]float64, 20)
	for i := range cov {
		cov[i] = float64(i)
	}
	out[0] = 1

	ds, err := New(cov, out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	split, err := StratifiedSplit(ds, 0.2, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}

	// round(0.2 * 1 event) = 0 events in train.
	verr := split.Validate("Calibrator.Calibrate")
	if verr == nil {
		t.Fatal("train side without events must fail validation")
	}
	if !errors.Is(verr, recalErrors.ErrDegenerateData) {
		t.Errorf("expected ErrDegenerateData, got %v", verr)
	}
}
