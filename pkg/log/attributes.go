// Package log defines standard attribute keys for training and inference
// operations. Using these keys keeps log output consistent and filterable
// across components.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// JointKey identifies a single joint within the per-joint training loop.
	JointKey = "ml.joint"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of target columns.
	TargetsKey = "data.targets"
)

// Training progress and results.
const (
	// IterationKey is the current boosting iteration.
	IterationKey = "train.iteration"

	// BestIterationKey is the best iteration kept after early stopping.
	BestIterationKey = "train.best_iteration"

	// RMSEKey is a validation root-mean-squared-error value.
	RMSEKey = "train.rmse"
)
