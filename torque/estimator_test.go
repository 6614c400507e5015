package torque

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/dataset"
	"github.com/robodyn/torquefit/gbdt"
	"github.com/robodyn/torquefit/pkg/errors"
)

// syntheticManipulator builds a learnable dataset: each joint's torque is a
// linear function of that joint's angle, velocity, and acceleration plus
// small noise.
func syntheticManipulator(joints, samples int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(samples, 3*joints, nil)
	y := mat.NewDense(samples, joints, nil)

	for i := 0; i < samples; i++ {
		for j := 0; j < joints; j++ {
			angle := rng.Float64()*2 - 1
			velocity := rng.Float64()*2 - 1
			acceleration := rng.Float64()*2 - 1
			X.Set(i, j, angle)
			X.Set(i, joints+j, velocity)
			X.Set(i, 2*joints+j, acceleration)
			y.Set(i, j, 3*angle+2*velocity+acceleration+rng.NormFloat64()*0.05)
		}
	}
	return X, y
}

func testParams() gbdt.TrainingParams {
	params := DefaultTrainingParams()
	params.NumIterations = 300
	params.MinDataInLeaf = 5
	params.EarlyStopping = 10
	return params
}

func fitTestEstimator(t *testing.T, joints int) (*Estimator, *mat.Dense, *mat.Dense, []float64) {
	t.Helper()

	X, y := syntheticManipulator(joints, 600, 42)
	XTrain, XVal, yTrain, yVal, err := dataset.TrainValSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}

	est := NewEstimator(joints).WithTrainingParams(testParams())
	rmse, err := est.Fit(XTrain, yTrain, XVal, yVal)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return est, XVal, yVal, rmse
}

func TestEstimatorFit(t *testing.T) {
	const joints = 3
	est, XVal, yVal, rmse := fitTestEstimator(t, joints)

	if !est.IsFitted() {
		t.Error("estimator not marked fitted after Fit")
	}
	if len(rmse) != joints {
		t.Fatalf("rmse has %d entries, want %d", len(rmse), joints)
	}

	// Targets span roughly [-6, 6]; a learned model must beat 0.5 RMSE
	for j, score := range rmse {
		if score > 0.5 {
			t.Errorf("joint %d validation RMSE = %g, want < 0.5", j+1, score)
		}
	}

	pred, err := est.Predict(XVal)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	rows, cols := pred.Dims()
	valRows, _ := XVal.Dims()
	if rows != valRows || cols != joints {
		t.Errorf("prediction dims = (%d,%d), want (%d,%d)", rows, cols, valRows, joints)
	}

	// Predictions must agree with the reported RMSE in physical units
	for j := 0; j < joints; j++ {
		var sumSquares float64
		for i := 0; i < rows; i++ {
			diff := pred.At(i, j) - yVal.At(i, j)
			sumSquares += diff * diff
		}
		predRMSE := math.Sqrt(sumSquares / float64(rows))
		if math.Abs(predRMSE-rmse[j]) > 1e-9 {
			t.Errorf("joint %d: Predict RMSE %g differs from reported %g", j+1, predRMSE, rmse[j])
		}
	}
}

func TestEstimatorNotFitted(t *testing.T) {
	est := NewEstimator(3)
	X := mat.NewDense(5, 9, nil)

	var notFitted *errors.NotFittedError

	_, err := est.Predict(X)
	if !errors.As(err, &notFitted) {
		t.Errorf("Predict: expected NotFittedError, got %T: %v", err, err)
	}

	_, err = est.FeatureImportance()
	if !errors.As(err, &notFitted) {
		t.Errorf("FeatureImportance: expected NotFittedError, got %T: %v", err, err)
	}

	err = est.Save(t.TempDir())
	if !errors.As(err, &notFitted) {
		t.Errorf("Save: expected NotFittedError, got %T: %v", err, err)
	}
}

func TestEstimatorFitShapeValidation(t *testing.T) {
	const joints = 3
	est := NewEstimator(joints)

	XTrain := mat.NewDense(100, 3*joints, nil)
	yTrain := mat.NewDense(100, joints, nil)
	XVal := mat.NewDense(20, 3*joints, nil)
	yVal := mat.NewDense(20, joints, nil)

	var dimErr *errors.DimensionError

	_, err := est.Fit(mat.NewDense(100, 7, nil), yTrain, XVal, yVal)
	if !errors.As(err, &dimErr) {
		t.Errorf("wrong feature width: expected DimensionError, got %T: %v", err, err)
	}

	_, err = est.Fit(XTrain, mat.NewDense(100, joints+1, nil), XVal, yVal)
	if !errors.As(err, &dimErr) {
		t.Errorf("wrong target width: expected DimensionError, got %T: %v", err, err)
	}

	_, err = est.Fit(XTrain, mat.NewDense(99, joints, nil), XVal, yVal)
	if !errors.As(err, &dimErr) {
		t.Errorf("train row mismatch: expected DimensionError, got %T: %v", err, err)
	}

	_, err = est.Fit(XTrain, yTrain, XVal, mat.NewDense(19, joints, nil))
	if !errors.As(err, &dimErr) {
		t.Errorf("val row mismatch: expected DimensionError, got %T: %v", err, err)
	}
}

func TestEstimatorPredictWidthCheck(t *testing.T) {
	est, _, _, _ := fitTestEstimator(t, 2)

	_, err := est.Predict(mat.NewDense(5, 7, nil))
	if err == nil {
		t.Fatal("expected error for wrong feature width")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %T: %v", err, err)
	}
}

func TestEstimatorFeatureImportance(t *testing.T) {
	const joints = 3
	est, _, _, _ := fitTestEstimator(t, joints)

	importance, err := est.FeatureImportance()
	if err != nil {
		t.Fatalf("FeatureImportance failed: %v", err)
	}

	rows, cols := importance.Dims()
	if rows != joints || cols != 3*joints {
		t.Fatalf("importance dims = (%d,%d), want (%d,%d)", rows, cols, joints, 3*joints)
	}

	for j := 0; j < joints; j++ {
		total := 0.0
		for k := 0; k < cols; k++ {
			v := importance.At(j, k)
			if v < 0 {
				t.Errorf("negative importance at (%d,%d): %g", j, k, v)
			}
			total += v
		}
		if math.Abs(total-1.0) > 1e-9 {
			t.Errorf("joint %d importance sums to %g, want 1", j+1, total)
		}

		// Joint j's torque depends only on joint j's own kinematics, so its
		// own three columns should dominate
		own := importance.At(j, j) + importance.At(j, joints+j) + importance.At(j, 2*joints+j)
		if own < 0.5 {
			t.Errorf("joint %d own-feature importance = %g, want > 0.5", j+1, own)
		}
	}
}

func TestEstimatorNamesAndJoints(t *testing.T) {
	est := NewEstimator(2)

	if est.Joints() != 2 {
		t.Errorf("Joints() = %d, want 2", est.Joints())
	}

	features := est.FeatureNames()
	if len(features) != 6 {
		t.Fatalf("FeatureNames has %d entries, want 6", len(features))
	}
	if features[0] != "angle_1" || features[2] != "velocity_1" || features[4] != "acceleration_1" {
		t.Errorf("unexpected feature naming: %v", features)
	}

	targets := est.TargetNames()
	if len(targets) != 2 || targets[0] != "torque_1" || targets[1] != "torque_2" {
		t.Errorf("unexpected target naming: %v", targets)
	}
}

func TestEstimatorDeterministic(t *testing.T) {
	const joints = 2
	X, y := syntheticManipulator(joints, 300, 9)
	XTrain, XVal, yTrain, yVal, err := dataset.TrainValSplit(X, y, 0.2, 9)
	if err != nil {
		t.Fatal(err)
	}

	params := testParams()
	params.NumIterations = 50

	fit := func() []float64 {
		est := NewEstimator(joints).WithTrainingParams(params)
		rmse, err := est.Fit(XTrain, yTrain, XVal, yVal)
		if err != nil {
			t.Fatal(err)
		}
		return rmse
	}

	first := fit()
	second := fit()
	for j := range first {
		if first[j] != second[j] {
			t.Errorf("joint %d: same seed produced RMSE %g then %g", j+1, first[j], second[j])
		}
	}
}
