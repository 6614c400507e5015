package gbdt

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/pkg/log"
)

// EarlyStopping tracks validation loss across boosting rounds and signals
// when training should stop.
type EarlyStopping struct {
	Rounds          int     // Number of rounds without improvement to stop
	BestScore       float64 // Best validation score so far
	BestIteration   int     // Iteration with best score
	RoundsNoImprove int     // Current rounds without improvement
	Enabled         bool    // Whether early stopping is enabled
}

// NewEarlyStopping creates an early stopping handler. rounds <= 0 disables it.
func NewEarlyStopping(rounds int) *EarlyStopping {
	if rounds <= 0 {
		return &EarlyStopping{Enabled: false}
	}

	return &EarlyStopping{
		Rounds:        rounds,
		BestScore:     math.Inf(1),
		BestIteration: 0,
		Enabled:       true,
	}
}

// Update records the score for an iteration and returns true when training
// should stop.
func (es *EarlyStopping) Update(iteration int, score float64) bool {
	if !es.Enabled {
		return false
	}

	if score < es.BestScore {
		es.BestScore = score
		es.BestIteration = iteration
		es.RoundsNoImprove = 0
	} else {
		es.RoundsNoImprove++
	}

	return es.RoundsNoImprove >= es.Rounds
}

// ShouldStop returns whether training should stop.
func (es *EarlyStopping) ShouldStop() bool {
	if !es.Enabled {
		return false
	}
	return es.RoundsNoImprove >= es.Rounds
}

// GetBestIteration returns the best iteration seen, or -1 when disabled.
func (es *EarlyStopping) GetBestIteration() int {
	if !es.Enabled {
		return -1
	}
	return es.BestIteration
}

// ValidationData holds the held-out fold monitored during training.
type ValidationData struct {
	X mat.Matrix
	Y mat.Matrix
}

// FitWithValidation trains the ensemble while monitoring validation loss.
// When early stopping triggers, only the trees up to the best-seen iteration
// are kept.
func (t *Trainer) FitWithValidation(X, y mat.Matrix, valData *ValidationData) error {
	if err := t.setData(X, y); err != nil {
		return err
	}

	var (
		earlyStopping *EarlyStopping
		valX          *mat.Dense
		valPreds      []float64
	)
	if valData != nil && t.params.EarlyStopping > 0 {
		valRows, valCols := valData.X.Dims()
		_, cols := t.X.Dims()
		if valCols != cols {
			return errors.NewDimensionError("gbdt.Trainer.FitWithValidation", cols, valCols, 1)
		}

		earlyStopping = NewEarlyStopping(t.params.EarlyStopping)
		valX = mat.DenseCopyOf(valData.X)
		valPreds = make([]float64, valRows)
		for i := range valPreds {
			valPreds[i] = t.initScore
		}
	}

	for iter := 0; iter < t.params.NumIterations; iter++ {
		t.iteration = iter
		t.calculateGradients()

		tree, err := t.buildTree()
		if err != nil {
			return errors.Wrapf(err, "tree building failed at iteration %d", iter)
		}

		t.trees = append(t.trees, tree)
		t.updatePredictions(tree)

		if earlyStopping != nil {
			valScore := t.updateValidationLoss(tree, valX, valData.Y, valPreds)
			if earlyStopping.Update(iter, valScore) {
				// Keep only trees up to the best iteration
				if earlyStopping.BestIteration+1 < len(t.trees) {
					t.trees = t.trees[:earlyStopping.BestIteration+1]
				}
				t.bestIteration = earlyStopping.BestIteration
				if t.params.Verbosity > 0 {
					logger := log.GetLoggerWithName("gbdt.trainer")
					logger.Info("Early stopping",
						log.IterationKey, iter,
						log.BestIterationKey, earlyStopping.BestIteration)
				}
				break
			}
		}
	}

	// Round limit reached without the patience window firing: still keep
	// only the trees up to the best-seen iteration.
	if earlyStopping != nil && !earlyStopping.ShouldStop() {
		if earlyStopping.BestIteration+1 < len(t.trees) {
			t.trees = t.trees[:earlyStopping.BestIteration+1]
		}
		t.bestIteration = earlyStopping.BestIteration
	}

	return nil
}

// updateValidationLoss folds the new tree into the running validation
// predictions and returns the validation mean squared error.
func (t *Trainer) updateValidationLoss(tree Tree, valX *mat.Dense, valY mat.Matrix, valPreds []float64) float64 {
	rows, _ := valX.Dims()

	loss := 0.0
	for i := 0; i < rows; i++ {
		features := mat.Row(nil, i, valX)
		valPreds[i] += tree.Predict(features)

		diff := valPreds[i] - valY.At(i, 0)
		loss += diff * diff
	}

	return loss / float64(rows)
}
