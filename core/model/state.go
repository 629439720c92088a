// Package model provides the shared estimator-state abstraction.
//
// Every estimator in recal composes a StateManager rather than embedding
// it, keeping fitted-state handling in one place:
//
//	type LogisticRegression struct {
//	    state *model.StateManager
//	    ...
//	}
//
//	func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
//	    // training logic
//	    lr.state.SetFitted()
//	    lr.state.SetDimensions(nFeatures, nSamples)
//	    return nil
//	}
//
// Models are fit once and read-only thereafter; the state check guards
// every scoring path against use before training.
package model

// EstimatorState represents the learning state of a model.
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained.
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained.
	Fitted
)

// StateManager tracks whether an estimator has been trained and the
// dimensions it was trained on.
type StateManager struct {
	state     EstimatorState
	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{state: NotFitted}
}

// IsFitted reports whether the estimator has been trained.
func (s *StateManager) IsFitted() bool {
	return s.state == Fitted
}

// SetFitted marks the estimator as trained. Called by estimator
// implementations at the end of a successful Fit.
func (s *StateManager) SetFitted() {
	s.state = Fitted
}

// Reset returns the estimator to the untrained state.
func (s *StateManager) Reset() {
	s.state = NotFitted
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions records the training data shape.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// NFeatures returns the number of features seen at fit time.
func (s *StateManager) NFeatures() int {
	return s.nFeatures
}

// NSamples returns the number of samples seen at fit time.
func (s *StateManager) NSamples() int {
	return s.nSamples
}
