// Package errors defines the typed error taxonomy shared by all recal
// packages.
//
// Every failure mode of the experiment pipeline maps onto one of the
// error types below: invalid inputs (ValueError, ValidationError,
// DimensionError), use of an untrained model (NotFittedError), a solver
// that did not converge (ConvergenceError) and a training partition that
// cannot support a fit (DegenerateDataError). All types carry the
// operation that produced them and support errors.Is / errors.As.
//
// Wrapping and stack capture are delegated to github.com/cockroachdb/errors
// so callers get full context with %+v formatting.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the common failure categories. Use errors.Is to
// test for them through any number of wrapping layers.
var (
	// ErrEmptyData indicates an empty data set or matrix was supplied.
	ErrEmptyData = errors.New("empty data")

	// ErrNotConverged indicates an iterative solver exhausted its
	// iteration budget without meeting the convergence tolerance.
	ErrNotConverged = errors.New("solver did not converge")

	// ErrDegenerateData indicates a training set on which a binary
	// classifier cannot be estimated (single-class outcome).
	ErrDegenerateData = errors.New("degenerate training data")

	// ErrSingularMatrix indicates a matrix that cannot be inverted.
	ErrSingularMatrix = errors.New("singular matrix")
)

// ValueError reports an invalid input value for an operation.
type ValueError struct {
	Op      string // Operation that rejected the value
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("recal: %s: %s", e.Op, e.Message)
}

// DimensionError reports a shape mismatch between related inputs.
type DimensionError struct {
	Op       string // Operation that detected the mismatch
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("recal: %s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// ValidationError reports an invalid configuration field or parameter.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recal: invalid %s: %s", e.Field, e.Message)
}

// NotFittedError reports use of a model before it was trained.
type NotFittedError struct {
	ModelName string
	Method    string // Method that required a fitted model
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("recal: %s is not fitted; call Fit before %s", e.ModelName, e.Method)
}

// ModelError wraps a lower-level failure with model operation context.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recal: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("recal: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ConvergenceError reports a maximum-likelihood fit that failed to
// converge. The fit is unrecoverable: the inputs are deterministic, so
// retrying with the same data cannot succeed.
type ConvergenceError struct {
	Op         string // Fitting stage that failed
	Iterations int    // Iterations consumed before giving up
	Err        error
}

// NewConvergenceError creates a ConvergenceError for the given stage.
func NewConvergenceError(op string, iterations int, err error) *ConvergenceError {
	return &ConvergenceError{Op: op, Iterations: iterations, Err: err}
}

func (e *ConvergenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("recal: %s: no convergence after %d iterations", e.Op, e.Iterations)
	}
	return fmt.Sprintf("recal: %s: no convergence after %d iterations: %v", e.Op, e.Iterations, e.Err)
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// DegenerateDataError reports a training partition on which a binary
// classifier cannot be fit: all observations belong to one class.
type DegenerateDataError struct {
	Op      string
	Reason  string
	Events  int // Positive outcomes in the partition
	Samples int // Total observations in the partition
}

// NewDegenerateDataError creates a DegenerateDataError.
func NewDegenerateDataError(op, reason string, events, samples int) *DegenerateDataError {
	return &DegenerateDataError{Op: op, Reason: reason, Events: events, Samples: samples}
}

func (e *DegenerateDataError) Error() string {
	return fmt.Sprintf("recal: %s: %s (%d events in %d samples)",
		e.Op, e.Reason, e.Events, e.Samples)
}

func (e *DegenerateDataError) Unwrap() error { return ErrDegenerateData }

// Wrap adds a message to err, preserving the original in the chain.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf adds a formatted message to err.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Recover converts a panic in an exported entry point into an error
// tagged with the operation name. Use as:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//	    defer recalErrors.Recover(&err, "Model.Fit")
//	    ...
//	}
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		*err = errors.Newf("recal: %s: panic: %v", op, r)
	}
}
