// Package torque implements per-joint torque regression for a fixed-size
// manipulator: one gradient-boosted model per joint trained on the full
// scaled kinematic feature vector, plus the feature and target scalers that
// together form the persistence and prediction unit.
package torque

import (
	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/core/model"
	"github.com/robodyn/torquefit/core/parallel"
	"github.com/robodyn/torquefit/dataset"
	"github.com/robodyn/torquefit/gbdt"
	"github.com/robodyn/torquefit/metrics"
	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/pkg/log"
	"github.com/robodyn/torquefit/preprocessing"
)

// Estimator predicts per-joint torques from joint angle, velocity, and
// acceleration. It owns exactly N independently trained regression models
// (one per joint) and the two standardization scalers fitted on training
// data. The estimator is either fully fitted (all N models plus both
// scalers) or unfitted; partial states are never observable.
type Estimator struct {
	model.BaseEstimator

	joints       int
	params       gbdt.TrainingParams
	featureNames []string
	targetNames  []string

	featureScaler *preprocessing.StandardScaler
	targetScaler  *preprocessing.StandardScaler
	models        []*gbdt.Model
}

// DefaultTrainingParams returns the fixed boosting configuration used for
// every joint model: moderate leaf count, small learning rate, row and
// feature subsampling, up to 1000 rounds with a patience of 20.
func DefaultTrainingParams() gbdt.TrainingParams {
	return gbdt.TrainingParams{
		NumIterations:   1000,
		LearningRate:    0.05,
		NumLeaves:       31,
		MaxDepth:        -1,
		MinDataInLeaf:   20,
		Lambda:          1.0,
		BaggingFraction: 0.8,
		FeatureFraction: 0.8,
		EarlyStopping:   20,
		Seed:            42,
	}
}

// NewEstimator creates an unfitted estimator for a manipulator with the
// given joint count.
func NewEstimator(joints int) *Estimator {
	return &Estimator{
		joints:       joints,
		params:       DefaultTrainingParams(),
		featureNames: dataset.FeatureNames(joints),
		targetNames:  dataset.TargetNames(joints),
	}
}

// WithTrainingParams overrides the boosting configuration.
func (e *Estimator) WithTrainingParams(params gbdt.TrainingParams) *Estimator {
	e.params = params
	return e
}

// Joints returns the configured joint count.
func (e *Estimator) Joints() int {
	return e.joints
}

// FeatureNames returns the fixed feature column naming.
func (e *Estimator) FeatureNames() []string {
	return append([]string(nil), e.featureNames...)
}

// TargetNames returns the fixed target column naming.
func (e *Estimator) TargetNames() []string {
	return append([]string(nil), e.targetNames...)
}

// Fit trains the full ensemble and returns per-joint validation RMSE in
// original torque units, in joint order.
//
// Both scalers are fitted on the training fold only and reused for the
// validation fold. The N joint models are mutually independent given the
// fixed scaled inputs, so they train in parallel; each task only writes its
// own reserved slot and no task mutates scaler state after the initial fit.
// If any joint's training fails the whole run aborts with a TrainingError
// and nothing is committed: the estimator stays in its previous state.
func (e *Estimator) Fit(XTrain, yTrain, XVal, yVal mat.Matrix) (rmse []float64, err error) {
	defer errors.Recover(&err, "Estimator.Fit")

	if err := e.checkFitShapes(XTrain, yTrain, XVal, yVal); err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("torque.estimator")
	trainRows, _ := XTrain.Dims()
	valRows, _ := XVal.Dims()
	logger.Info("Training torque estimator",
		log.ModelNameKey, "torque.Estimator",
		log.OperationKey, "fit",
		log.SamplesKey, trainRows,
		"validation_samples", valRows,
		log.FeaturesKey, 3*e.joints,
		log.TargetsKey, e.joints)

	featureScaler := preprocessing.NewStandardScaler()
	XTrainScaled, err := featureScaler.FitTransform(XTrain)
	if err != nil {
		return nil, err
	}
	XValScaled, err := featureScaler.Transform(XVal)
	if err != nil {
		return nil, err
	}

	targetScaler := preprocessing.NewStandardScaler()
	yTrainScaled, err := targetScaler.FitTransform(yTrain)
	if err != nil {
		return nil, err
	}
	yValScaled, err := targetScaler.Transform(yVal)
	if err != nil {
		return nil, err
	}

	models := make([]*gbdt.Model, e.joints)
	scores := make([]float64, e.joints)
	jointErrs := make([]error, e.joints)

	parallel.Parallelize(e.joints, func(start, end int) {
		for j := start; j < end; j++ {
			models[j], scores[j], jointErrs[j] = e.fitJoint(
				j, XTrainScaled, yTrainScaled, XValScaled, yValScaled, yVal, targetScaler)
		}
	})

	for j, jointErr := range jointErrs {
		if jointErr != nil {
			return nil, errors.NewTrainingError(j, jointErr)
		}
	}

	// Commit wholesale only after every joint succeeded
	e.featureScaler = featureScaler
	e.targetScaler = targetScaler
	e.models = models
	e.SetFitted()

	for j, score := range scores {
		logger.Info("Joint model trained",
			log.JointKey, j+1,
			log.BestIterationKey, models[j].BestIteration,
			log.RMSEKey, score)
	}

	return scores, nil
}

// fitJoint trains one joint's model on the scaled tables and computes its
// validation RMSE in original torque units.
func (e *Estimator) fitJoint(j int, XTrainScaled, yTrainScaled, XValScaled, yValScaled, yValOrig mat.Matrix, targetScaler *preprocessing.StandardScaler) (*gbdt.Model, float64, error) {
	trainRows, _ := yTrainScaled.Dims()
	valRows, _ := yValScaled.Dims()

	yCol := mat.NewDense(trainRows, 1, nil)
	for i := 0; i < trainRows; i++ {
		yCol.Set(i, 0, yTrainScaled.At(i, j))
	}
	yValCol := mat.NewDense(valRows, 1, nil)
	for i := 0; i < valRows; i++ {
		yValCol.Set(i, 0, yValScaled.At(i, j))
	}

	// Decorrelate subsampling across joints while keeping runs reproducible
	params := e.params
	params.Seed = e.params.Seed + int64(j)

	trainer := gbdt.NewTrainer(params)
	if err := trainer.FitWithValidation(XTrainScaled, yCol, &gbdt.ValidationData{X: XValScaled, Y: yValCol}); err != nil {
		return nil, 0, err
	}
	m := trainer.GetModel()

	// Score in physical units: predict scaled, invert column j's statistics
	predScaled, err := m.Predict(XValScaled)
	if err != nil {
		return nil, 0, err
	}
	scaledCol := make([]float64, valRows)
	for i := 0; i < valRows; i++ {
		scaledCol[i] = predScaled.At(i, 0)
	}
	pred, err := targetScaler.InverseTransformColumn(j, scaledCol)
	if err != nil {
		return nil, 0, err
	}

	truth := make([]float64, valRows)
	for i := 0; i < valRows; i++ {
		truth[i] = yValOrig.At(i, j)
	}

	score, err := metrics.RMSESlice(truth, pred)
	if err != nil {
		return nil, 0, err
	}

	return m, score, nil
}

// checkFitShapes validates all four Fit inputs against the joint count.
func (e *Estimator) checkFitShapes(XTrain, yTrain, XVal, yVal mat.Matrix) error {
	wantFeatures := 3 * e.joints

	trainRows, trainCols := XTrain.Dims()
	if trainCols != wantFeatures {
		return errors.NewDimensionError("Estimator.Fit", wantFeatures, trainCols, 1)
	}
	yTrainRows, yTrainCols := yTrain.Dims()
	if yTrainCols != e.joints {
		return errors.NewDimensionError("Estimator.Fit", e.joints, yTrainCols, 1)
	}
	if yTrainRows != trainRows {
		return errors.NewDimensionError("Estimator.Fit", trainRows, yTrainRows, 0)
	}

	valRows, valCols := XVal.Dims()
	if valCols != wantFeatures {
		return errors.NewDimensionError("Estimator.Fit", wantFeatures, valCols, 1)
	}
	yValRows, yValCols := yVal.Dims()
	if yValCols != e.joints {
		return errors.NewDimensionError("Estimator.Fit", e.joints, yValCols, 1)
	}
	if yValRows != valRows {
		return errors.NewDimensionError("Estimator.Fit", valRows, yValRows, 0)
	}

	return nil
}

// Predict returns physical-unit torques for a batch of feature rows. The
// output has one row per input row and one column per joint, in joint order.
func (e *Estimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Estimator", "Predict")
	}

	rows, cols := X.Dims()
	if cols != 3*e.joints {
		return nil, errors.NewDimensionError("Estimator.Predict", 3*e.joints, cols, 1)
	}

	XScaled, err := e.featureScaler.Transform(X)
	if err != nil {
		return nil, err
	}

	scaled := mat.NewDense(rows, e.joints, nil)
	for j, m := range e.models {
		pred, err := m.Predict(XScaled)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			scaled.Set(i, j, pred.At(i, 0))
		}
	}

	return e.targetScaler.InverseTransform(scaled)
}

// FeatureImportance returns the gain-based importance matrix: row j holds
// joint j's per-feature scores, one column per input feature. Read-only.
func (e *Estimator) FeatureImportance() (*mat.Dense, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("Estimator", "FeatureImportance")
	}

	importance := mat.NewDense(e.joints, 3*e.joints, nil)
	for j, m := range e.models {
		importance.SetRow(j, m.FeatureImportance("gain"))
	}

	return importance, nil
}
