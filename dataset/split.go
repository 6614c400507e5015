package dataset

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
)

// TrainValSplit partitions the rows of X and y into training and validation
// subsets. valFraction of the rows (0 < valFraction < 1) go to validation.
// The partition is a single seeded random permutation: identical inputs and
// seed always produce identical partitions, and the same row index lands on
// the same side for X and y.
func TrainValSplit(X, y mat.Matrix, valFraction float64, seed int64) (XTrain, XVal, yTrain, yVal *mat.Dense, err error) {
	if valFraction <= 0 || valFraction >= 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainValSplit",
			fmt.Sprintf("valFraction must be in (0, 1), got %g", valFraction))
	}

	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainValSplit", rows, yRows, 0)
	}

	nVal := int(valFraction * float64(rows))
	if nVal == 0 || nVal == rows {
		return nil, nil, nil, nil, errors.NewValueError("TrainValSplit",
			fmt.Sprintf("valFraction %g leaves an empty partition for %d rows", valFraction, rows))
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(rows)

	valIdx := append([]int(nil), perm[:nVal]...)
	trainIdx := append([]int(nil), perm[nVal:]...)
	sort.Ints(valIdx)
	sort.Ints(trainIdx)

	XTrain = selectRows(X, trainIdx)
	XVal = selectRows(X, valIdx)
	yTrain = selectRows(y, trainIdx)
	yVal = selectRows(y, valIdx)

	return XTrain, XVal, yTrain, yVal, nil
}

// selectRows copies the given rows of m into a new dense matrix, preserving
// their order.
func selectRows(m mat.Matrix, indices []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(idx, j))
		}
	}
	return out
}
