// Package errors provides the error taxonomy used across torquefit.
// Every error kind carries a stack trace via cockroachdb/errors and can be
// emitted as a structured zerolog object.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// NotFoundError indicates a missing file, directory, or bundle artifact.
type NotFoundError struct {
	Path string
	Kind string // "file", "directory", "artifact"
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("torquefit: %s not found: %s", e.Kind, e.Path)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("kind", e.Kind).
		Str("type", "NotFoundError")
}

// NewNotFoundError creates a NotFoundError with a stack trace attached.
func NewNotFoundError(kind, path string) error {
	err := &NotFoundError{Path: path, Kind: kind}
	return errors.WithStack(err)
}

// ShapeError indicates that a loaded table's dimensions do not match the
// expected shape. It names the offending source so callers can report it.
type ShapeError struct {
	Source       string
	ExpectedRows int
	ExpectedCols int // -1 when the column count is inferred from the data
	ActualRows   int
	ActualCols   int
}

func (e *ShapeError) Error() string {
	if e.ExpectedCols < 0 {
		return fmt.Sprintf("torquefit: %s: shape mismatch: expected (%d,*), got (%d,%d)",
			e.Source, e.ExpectedRows, e.ActualRows, e.ActualCols)
	}
	return fmt.Sprintf("torquefit: %s: shape mismatch: expected (%d,%d), got (%d,%d)",
		e.Source, e.ExpectedRows, e.ExpectedCols, e.ActualRows, e.ActualCols)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("expected_rows", e.ExpectedRows).
		Int("expected_cols", e.ExpectedCols).
		Int("actual_rows", e.ActualRows).
		Int("actual_cols", e.ActualCols).
		Str("type", "ShapeError")
}

// NewShapeError creates a ShapeError with a stack trace attached.
func NewShapeError(source string, expectedRows, expectedCols, actualRows, actualCols int) error {
	err := &ShapeError{
		Source:       source,
		ExpectedRows: expectedRows,
		ExpectedCols: expectedCols,
		ActualRows:   actualRows,
		ActualCols:   actualCols,
	}
	return errors.WithStack(err)
}

// NotFittedError indicates that Predict, Transform, or another operation
// requiring a trained estimator was invoked before Fit or Load completed.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("torquefit: %s: this estimator is not fitted yet. Call Fit() or Load() before using %s()",
		e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DataLoadError wraps any data-ingestion failure that is not a missing file
// or a shape mismatch. The original cause is preserved for unwrapping.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("torquefit: failed to load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DataLoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		AnErr("cause", e.Err).
		Str("type", "DataLoadError")
}

// NewDataLoadError creates a DataLoadError wrapping the underlying cause.
func NewDataLoadError(source string, cause error) error {
	err := &DataLoadError{Source: source, Err: cause}
	return errors.WithStack(err)
}

// TrainingError indicates that one joint's training task failed. It aborts
// the whole training run; no partial ensemble is ever committed.
type TrainingError struct {
	Joint int
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("torquefit: training failed for joint %d: %v", e.Joint, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("joint", e.Joint).
		AnErr("cause", e.Err).
		Str("type", "TrainingError")
}

// NewTrainingError creates a TrainingError wrapping the joint's failure.
func NewTrainingError(joint int, cause error) error {
	err := &TrainingError{Joint: joint, Err: cause}
	return errors.WithStack(err)
}

// DimensionError indicates that an in-memory matrix has a different width or
// height than an already-fitted component expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("torquefit: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError indicates an argument whose value is invalid for the operation,
// such as a validation fraction outside (0, 1).
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("torquefit: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives an empty table.
	ErrEmptyData = New("empty data")
)
