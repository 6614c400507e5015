package dataset

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
)

// indexedMatrices builds X and y where every row carries its original index,
// so train/val correspondence can be checked after the split.
func indexedMatrices(rows, xCols, yCols int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(rows, xCols, nil)
	y := mat.NewDense(rows, yCols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < xCols; j++ {
			X.Set(i, j, float64(i*100+j))
		}
		for j := 0; j < yCols; j++ {
			y.Set(i, j, float64(i))
		}
	}
	return X, y
}

func TestTrainValSplitSizes(t *testing.T) {
	X, y := indexedMatrices(100, 4, 2)

	XTrain, XVal, yTrain, yVal, err := TrainValSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainValSplit failed: %v", err)
	}

	trainRows, _ := XTrain.Dims()
	valRows, _ := XVal.Dims()
	if trainRows != 80 || valRows != 20 {
		t.Errorf("split sizes = (%d,%d), want (80,20)", trainRows, valRows)
	}

	yTrainRows, _ := yTrain.Dims()
	yValRows, _ := yVal.Dims()
	if yTrainRows != trainRows || yValRows != valRows {
		t.Errorf("y split sizes (%d,%d) do not match X split sizes (%d,%d)",
			yTrainRows, yValRows, trainRows, valRows)
	}
}

func TestTrainValSplitRowCorrespondence(t *testing.T) {
	X, y := indexedMatrices(50, 3, 1)

	XTrain, XVal, yTrain, yVal, err := TrainValSplit(X, y, 0.3, 7)
	if err != nil {
		t.Fatalf("TrainValSplit failed: %v", err)
	}

	check := func(Xs, ys *mat.Dense, name string) {
		rows, _ := Xs.Dims()
		for i := 0; i < rows; i++ {
			origIdx := int(ys.At(i, 0))
			for j := 0; j < 3; j++ {
				want := float64(origIdx*100 + j)
				if got := Xs.At(i, j); got != want {
					t.Fatalf("%s row %d: X[%d,%d] = %g, want %g (y says original row %d)",
						name, i, i, j, got, want, origIdx)
				}
			}
		}
	}
	check(XTrain, yTrain, "train")
	check(XVal, yVal, "val")
}

func TestTrainValSplitDeterministic(t *testing.T) {
	X, y := indexedMatrices(40, 2, 1)

	_, XVal1, _, _, err := TrainValSplit(X, y, 0.25, 123)
	if err != nil {
		t.Fatal(err)
	}
	_, XVal2, _, _, err := TrainValSplit(X, y, 0.25, 123)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(XVal1, XVal2) {
		t.Error("same seed produced different validation partitions")
	}

	_, XVal3, _, _, err := TrainValSplit(X, y, 0.25, 456)
	if err != nil {
		t.Fatal(err)
	}
	if mat.Equal(XVal1, XVal3) {
		t.Error("different seeds produced identical validation partitions")
	}
}

func TestTrainValSplitInvalidFraction(t *testing.T) {
	X, y := indexedMatrices(10, 2, 1)

	for _, fraction := range []float64{0, 1, -0.1, 1.5} {
		_, _, _, _, err := TrainValSplit(X, y, fraction, 42)
		if err == nil {
			t.Errorf("valFraction %g: expected error", fraction)
			continue
		}
		var valueErr *errors.ValueError
		if !errors.As(err, &valueErr) {
			t.Errorf("valFraction %g: expected ValueError, got %T", fraction, err)
		}
	}
}

func TestTrainValSplitEmptyPartition(t *testing.T) {
	// 0.05 of 4 rows truncates to zero validation rows
	X, y := indexedMatrices(4, 2, 1)
	_, _, _, _, err := TrainValSplit(X, y, 0.05, 42)
	if err == nil {
		t.Fatal("expected error for empty validation partition")
	}
}

func TestTrainValSplitRowMismatch(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(9, 1, nil)

	_, _, _, _, err := TrainValSplit(X, y, 0.2, 42)
	if err == nil {
		t.Fatal("expected error for X/y row mismatch")
	}
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %T: %v", err, err)
	}
}
