// Package preprocessing provides feature scaling transforms.
package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/core/model"
	"github.com/robodyn/torquefit/pkg/errors"
)

// StandardScaler standardizes columns to zero mean and unit variance.
// Statistics are computed by Fit and are immutable until the next Fit call,
// which fully replaces them.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-column mean.
	Mean []float64

	// Scale holds the per-column standard deviation.
	Scale []float64

	// NFeatures is the number of columns seen at fit time.
	NFeatures int
}

// NewStandardScaler creates a new StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation from training data.
// Calling Fit again replaces all prior statistics.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(r)
	}

	for j := 0; j < c; j++ {
		sumSquares := 0.0
		for i := 0; i < r; i++ {
			diff := X.At(i, j) - s.Mean[j]
			sumSquares += diff * diff
		}
		variance := sumSquares / float64(r)
		s.Scale[j] = math.Sqrt(variance)

		// Constant columns get unit scale to avoid division by zero
		if math.Abs(s.Scale[j]) < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes data using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}

	return result, nil
}

// FitTransform fits on the data and transforms it in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}

	return result, nil
}

// InverseTransformColumn maps a single standardized column back to the
// original scale by applying column j's statistics directly. This avoids
// building a zero-filled full-width matrix when only one target column is of
// interest. The input slice is not modified.
func (s *StandardScaler) InverseTransformColumn(j int, values []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransformColumn")
	}
	if j < 0 || j >= s.NFeatures {
		return nil, errors.NewValueError("StandardScaler.InverseTransformColumn",
			fmt.Sprintf("column %d out of range [0,%d)", j, s.NFeatures))
	}

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = v*s.Scale[j] + s.Mean[j]
	}
	return result, nil
}

// scalerState is the gob wire form of a StandardScaler. The embedded
// estimator state has no exported fields, so the scaler must encode its full
// state itself; relying on default struct encoding would drop the statistics.
type scalerState struct {
	Mean      []float64
	Scale     []float64
	NFeatures int
	Fitted    bool
}

// GobEncode implements gob.GobEncoder, covering the statistics and the
// fitted state.
func (s *StandardScaler) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	state := scalerState{
		Mean:      s.Mean,
		Scale:     s.Scale,
		NFeatures: s.NFeatures,
		Fitted:    s.IsFitted(),
	}
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (s *StandardScaler) GobDecode(data []byte) error {
	var state scalerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return err
	}
	s.Mean = state.Mean
	s.Scale = state.Scale
	s.NFeatures = state.NFeatures
	if state.Fitted {
		s.SetFitted()
	} else {
		s.Reset()
	}
	return nil
}

// String returns a short description of the scaler.
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return "StandardScaler()"
	}
	return fmt.Sprintf("StandardScaler(n_features=%d)", s.NFeatures)
}
