package metrics_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/creditlab/recal/metrics"
)

func TestDecileTableStructure(t *testing.T) {
	const n = 1000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		p := float64(i) / n
		yPred.SetVec(i, p)
		if p > 0.5 {
			yTrue.SetVec(i, 1)
		}
	}

	table, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		t.Fatalf("DecileTable failed: %v", err)
	}

	if len(table) != 10 {
		t.Fatalf("expected exactly 10 bins, got %d", len(table))
	}

	total := 0
	for i, bin := range table {
		if bin.Rank != i+1 {
			t.Errorf("bin %d has rank %d", i, bin.Rank)
		}
		if bin.Count == 0 {
			t.Errorf("bin %d is empty", i)
		}
		total += bin.Count
	}
	if total != n {
		t.Errorf("bins should cover every observation: got %d, want %d", total, n)
	}

	// Bins are ordered by ascending predicted probability.
	for i := 1; i < len(table); i++ {
		if table[i].MeanPredicted < table[i-1].MeanPredicted {
			t.Errorf("bin %d mean prediction %f below bin %d's %f",
				i+1, table[i].MeanPredicted, i, table[i-1].MeanPredicted)
		}
	}
}

func TestDecileTablePerfectCalibration(t *testing.T) {
	// Outcomes exactly follow the predictions deterministically within
	// blocks: in a block of 10 with predicted p, round(10*p) are events.
	const n = 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		block := i / 10
		p := (float64(block%10) + 0.5) / 10 // 0.05, 0.15, ..., 0.95
		yPred.SetVec(i, p)
		if float64(i%10) < p*10 {
			yTrue.SetVec(i, 1)
		}
	}

	table, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		t.Fatalf("DecileTable failed: %v", err)
	}

	for _, bin := range table {
		if math.Abs(bin.MeanOutcome-bin.MeanPredicted) > 0.06 {
			t.Errorf("decile %d: actual %f far from predicted %f",
				bin.Rank, bin.MeanOutcome, bin.MeanPredicted)
		}
	}
}

func TestDecileTableUnevenCounts(t *testing.T) {
	// 17 observations cannot split evenly; bins differ by at most one
	// and every bin stays non-empty.
	const n = 17
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yPred.SetVec(i, float64(i)/n)
		yTrue.SetVec(i, float64(i%2))
	}

	table, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		t.Fatalf("DecileTable failed: %v", err)
	}
	if len(table) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(table))
	}
	for _, bin := range table {
		if bin.Count < 1 || bin.Count > 2 {
			t.Errorf("decile %d count %d outside [1, 2]", bin.Rank, bin.Count)
		}
	}
}

func TestDecileTableTooFewObservations(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 1, 0, 1, 0})
	yPred := mat.NewVecDense(5, []float64{0.1, 0.9, 0.2, 0.8, 0.3})

	if _, err := metrics.DecileTable(yTrue, yPred); err == nil {
		t.Error("fewer than 10 observations should be rejected")
	}
}

func TestDecileTableDeterministicTies(t *testing.T) {
	const n = 40
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yPred.SetVec(i, 0.25) // all tied
		yTrue.SetVec(i, float64(i%2))
	}

	a, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		t.Fatalf("DecileTable failed: %v", err)
	}
	b, err := metrics.DecileTable(yTrue, yPred)
	if err != nil {
		t.Fatalf("DecileTable failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tied predictions must bin deterministically, decile %d differs", i+1)
		}
	}
}
