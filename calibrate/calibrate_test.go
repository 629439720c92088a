package calibrate

import (
	"errors"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/creditlab/recal/dataset"
	"github.com/creditlab/recal/glm"
	recalErrors "github.com/creditlab/recal/pkg/errors"
	"github.com/creditlab/recal/simulate"
)

// fitBase simulates an industry population and fits the base model.
func fitBase(t *testing.T, n int, seed uint64) *glm.LogisticRegression {
	t.Helper()

	cfg := simulate.IndustryDefaults()
	cfg.N = n
	industry, err := simulate.Generate(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	base := glm.NewLogisticRegression()
	if err := base.Fit(industry.DesignMatrix(), industry.OutcomeVector()); err != nil {
		t.Fatalf("base Fit failed: %v", err)
	}
	return base
}

func companySet(t *testing.T, n int, seed uint64) *dataset.DataSet {
	t.Helper()

	cfg := simulate.CompanyDefaults()
	cfg.N = n
	company, err := simulate.Generate(cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return company
}

func TestCalibrateEndToEnd(t *testing.T) {
	base := fitBase(t, 50_000, 1)
	company := companySet(t, 10_000, 2)

	res, err := NewCalibrator().Calibrate(base, company, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	// Default ratio 0.1 on 10k rows: roughly a thousand training rows.
	if got := res.Split.Train.Len(); got < 900 || got > 1100 {
		t.Errorf("train size: got %d, want ~1000", got)
	}
	if res.Split.Train.Len()+res.Split.Test.Len() != company.Len() {
		t.Error("split must partition the company set")
	}

	// Both populations share the score orientation, so the base link
	// score ranks company risk the right way and the rescale slope must
	// come out positive.
	if res.Model.RescaleSlope() <= 0 {
		t.Errorf("rescale slope should be positive, got %f", res.Model.RescaleSlope())
	}
}

func TestCalibrateSlopeSignMatchesCorrelation(t *testing.T) {
	base := fitBase(t, 50_000, 5)
	company := companySet(t, 10_000, 6)

	res, err := NewCalibrator().Calibrate(base, company, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	// Calibration must not invert the ranking: the fitted slope has the
	// same sign as the link-score/outcome correlation in train.
	train := res.Split.Train
	scores := train.LinkScores()
	outcomes := make([]float64, train.Len())
	for i := range outcomes {
		outcomes[i] = train.Outcome(i)
	}
	corr := stat.Correlation(scores, outcomes, nil)

	if corr*res.Model.RescaleSlope() <= 0 {
		t.Errorf("slope sign (%f) should match correlation sign (%f)",
			res.Model.RescaleSlope(), corr)
	}
}

func TestCalibratedProbabilitiesComposeBaseScores(t *testing.T) {
	base := fitBase(t, 20_000, 9)
	company := companySet(t, 5_000, 10)

	res, err := NewCalibrator().Calibrate(base, company, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	test := res.Split.Test
	X := test.DesignMatrix()

	direct, err := res.Model.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	baseScores, err := base.LinkScores(X)
	if err != nil {
		t.Fatalf("LinkScores failed: %v", err)
	}
	viaScores, err := res.Model.PredictProbaFromLinkScores(baseScores)
	if err != nil {
		t.Fatalf("PredictProbaFromLinkScores failed: %v", err)
	}

	a, b := res.Model.RescaleIntercept(), res.Model.RescaleSlope()
	for i := range direct {
		if direct[i] != viaScores[i] {
			t.Fatalf("composition mismatch at %d: %f vs %f", i, direct[i], viaScores[i])
		}
		want := 1 / (1 + math.Exp(-(a + b*baseScores[i])))
		if math.Abs(direct[i]-want) > 1e-12 {
			t.Fatalf("calibrated probability at %d: got %f, want %f", i, direct[i], want)
		}
	}
}

func TestCalibrateRequiresFittedBase(t *testing.T) {
	company := companySet(t, 1_000, 1)

	_, err := NewCalibrator().Calibrate(glm.NewLogisticRegression(), company, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("unfitted base model should be rejected")
	}
	var target *recalErrors.NotFittedError
	if !errors.As(err, &target) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
}

func TestCalibrateDegenerateTinyCompany(t *testing.T) {
	base := fitBase(t, 20_000, 1)

	// Five observations with a 0.1 train ratio: the train side rounds
	// to nothing fittable.
	cov := []float64{10, 20, 30, 40, 50}
	out := []float64{1, 0, 0, 0, 0}
	tiny, err := dataset.New(cov, out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = NewCalibrator().Calibrate(base, tiny, rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("tiny company set should produce a degenerate-split error")
	}
	if !errors.Is(err, recalErrors.ErrDegenerateData) {
		t.Errorf("expected ErrDegenerateData, got %v", err)
	}
}

func TestCalibrateDegenerateNoEventsInTrain(t *testing.T) {
	base := fitBase(t, 20_000, 1)

	// One event in 200 rows at ratio 0.1: round(0.1*1) = 0 events in
	// train, which cannot support the rescaling fit.
	cov := make([]float64, 200)
	out := make([]float64, 200)
	for i := range cov {
		cov[i] = float64(i + 1)
	}
	out[0] = 1
	company, err := dataset.New(cov, out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = NewCalibrator().Calibrate(base, company, rand.New(rand.NewSource(2)))
	if err == nil {
		t.Fatal("event-free train partition should fail")
	}
	if !errors.Is(err, recalErrors.ErrDegenerateData) {
		t.Errorf("expected ErrDegenerateData, got %v", err)
	}
}

func TestCalibrateDeterminism(t *testing.T) {
	base := fitBase(t, 20_000, 21)
	company := companySet(t, 4_000, 22)

	a, err := NewCalibrator().Calibrate(base, company, rand.New(rand.NewSource(23)))
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	b, err := NewCalibrator().Calibrate(base, companySet(t, 4_000, 22), rand.New(rand.NewSource(23)))
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	if a.Model.RescaleIntercept() != b.Model.RescaleIntercept() ||
		a.Model.RescaleSlope() != b.Model.RescaleSlope() {
		t.Error("identical seeds must produce bit-identical calibration coefficients")
	}
}
