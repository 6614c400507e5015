package model

// EstimatorState represents the training state of an estimator.
type EstimatorState int

const (
	// NotFitted means the estimator has not been trained or loaded yet.
	NotFitted EstimatorState = iota
	// Fitted means the estimator holds a complete trained state.
	Fitted
)

// BaseEstimator is the embedded base for every estimator. The state enum is
// the single source of truth checked by all precondition-sensitive
// operations; there is no ambient fitted flag elsewhere.
//
// The state is unexported and so invisible to reflection-based codecs.
// Persisted estimators must carry it through their own encoding, the way
// StandardScaler's gob methods do.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
