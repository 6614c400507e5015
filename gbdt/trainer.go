package gbdt

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
	"github.com/robodyn/torquefit/pkg/log"
)

// TrainingParams contains all training hyperparameters.
type TrainingParams struct {
	// Basic parameters
	NumIterations int     `json:"num_iterations"`
	LearningRate  float64 `json:"learning_rate"`
	NumLeaves     int     `json:"num_leaves"`
	MaxDepth      int     `json:"max_depth"`
	MinDataInLeaf int     `json:"min_data_in_leaf"`

	// Regularization
	Lambda         float64 `json:"lambda_l2"`
	MinGainToSplit float64 `json:"min_gain_to_split"`

	// Sampling
	BaggingFraction float64 `json:"bagging_fraction"`
	FeatureFraction float64 `json:"feature_fraction"`

	// Other
	Seed          int64 `json:"seed"`
	Verbosity     int   `json:"verbosity"`
	EarlyStopping int   `json:"early_stopping_rounds"`
}

// SplitInfo contains information about a potential split.
type SplitInfo struct {
	Feature    int
	Threshold  float64
	Gain       float64
	LeftCount  int
	RightCount int
	LeftGrad   float64
	RightGrad  float64
	LeftHess   float64
	RightHess  float64
}

// Trainer builds a least-squares boosted tree ensemble.
type Trainer struct {
	params TrainingParams

	// Data
	X *mat.Dense
	y *mat.Dense

	// Gradient statistics for the L2 objective
	gradients []float64
	hessians  []float64

	// Running ensemble predictions over the training rows
	predictions []float64

	// Trees
	trees []Tree

	// Training state
	iteration     int
	bestIteration int
	initScore     float64
	rng           *rand.Rand
}

// NewTrainer creates a new trainer, filling in defaults for zero-valued
// parameters.
func NewTrainer(params TrainingParams) *Trainer {
	if params.NumIterations == 0 {
		params.NumIterations = 100
	}
	if params.LearningRate == 0 {
		params.LearningRate = 0.1
	}
	if params.NumLeaves == 0 {
		params.NumLeaves = 31
	}
	if params.MinDataInLeaf == 0 {
		params.MinDataInLeaf = 20
	}
	if params.BaggingFraction == 0 {
		params.BaggingFraction = 1.0
	}
	if params.FeatureFraction == 0 {
		params.FeatureFraction = 1.0
	}
	if params.MinGainToSplit == 0 {
		params.MinGainToSplit = 1e-7
	}

	return &Trainer{
		params:        params,
		bestIteration: -1,
		rng:           rand.New(rand.NewSource(params.Seed)),
	}
}

// Fit trains the ensemble without a validation set. Early stopping requires
// validation data; use FitWithValidation for that.
func (t *Trainer) Fit(X, y mat.Matrix) error {
	if err := t.setData(X, y); err != nil {
		return err
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

		if t.params.Verbosity > 0 && iter%10 == 0 {
			logger := log.GetLoggerWithName("gbdt.trainer")
			logger.Debug("Training progress",
				log.IterationKey, iter,
				"loss", t.trainingLoss())
		}
	}

	return nil
}

// setData copies the inputs into dense matrices and prepares buffers.
func (t *Trainer) setData(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}
	if yRows != rows {
		return errors.NewDimensionError("gbdt.Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("gbdt.Trainer.Fit", 1, yCols, 1)
	}

	t.X = mat.DenseCopyOf(X)
	t.y = mat.DenseCopyOf(y)

	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)
	t.trees = t.trees[:0]

	// Baseline is the target mean for least squares
	sum := 0.0
	for i := 0; i < rows; i++ {
		sum += t.y.At(i, 0)
	}
	t.initScore = sum / float64(rows)

	t.predictions = make([]float64, rows)
	for i := range t.predictions {
		t.predictions[i] = t.initScore
	}

	return nil
}

// calculateGradients computes gradients and hessians of the squared loss at
// the current predictions.
func (t *Trainer) calculateGradients() {
	rows, _ := t.y.Dims()
	for i := 0; i < rows; i++ {
		t.gradients[i] = t.predictions[i] - t.y.At(i, 0)
		t.hessians[i] = 1.0
	}
}

// buildTree constructs a single decision tree on a (possibly bagged) subset
// of rows and a sampled subset of features.
func (t *Trainer) buildTree() (Tree, error) {
	tree := Tree{
		TreeIndex:     t.iteration,
		ShrinkageRate: t.params.LearningRate,
		Nodes:         []Node{},
	}

	rootIndices := t.sampleRows()
	features := t.sampleFeatures()

	t.buildNode(&tree, rootIndices, features, -1, 0)

	tree.NumLeaves = countLeaves(&tree)

	return tree, nil
}

// sampleRows returns the training row indices for this iteration, bagged
// without replacement when BaggingFraction < 1.
func (t *Trainer) sampleRows() []int {
	rows, _ := t.X.Dims()

	if t.params.BaggingFraction >= 1.0 {
		indices := make([]int, rows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	n := int(math.Ceil(t.params.BaggingFraction * float64(rows)))
	if n < 1 {
		n = 1
	}
	perm := t.rng.Perm(rows)
	indices := append([]int(nil), perm[:n]...)
	sort.Ints(indices)
	return indices
}

// sampleFeatures returns the candidate split features for this iteration.
func (t *Trainer) sampleFeatures() []int {
	_, cols := t.X.Dims()

	if t.params.FeatureFraction >= 1.0 {
		features := make([]int, cols)
		for j := range features {
			features[j] = j
		}
		return features
	}

	n := int(math.Ceil(t.params.FeatureFraction * float64(cols)))
	if n < 1 {
		n = 1
	}
	perm := t.rng.Perm(cols)
	features := append([]int(nil), perm[:n]...)
	sort.Ints(features)
	return features
}

// buildNode recursively builds tree nodes.
func (t *Trainer) buildNode(tree *Tree, indices []int, features []int, parentIdx, depth int) int {
	nodeIdx := len(tree.Nodes)

	// Stopping conditions
	numLeaves := countLeaves(tree)
	if (t.params.MaxDepth > 0 && depth >= t.params.MaxDepth) ||
		len(indices) < 2*t.params.MinDataInLeaf ||
		(t.params.NumLeaves > 0 && numLeaves >= t.params.NumLeaves-1) {
		return t.appendLeaf(tree, indices, parentIdx)
	}

	bestSplit := t.findBestSplit(indices, features)
	if bestSplit.Gain < t.params.MinGainToSplit {
		return t.appendLeaf(tree, indices, parentIdx)
	}

	tree.Nodes = append(tree.Nodes, Node{
		NodeID:       nodeIdx,
		ParentID:     parentIdx,
		SplitFeature: bestSplit.Feature,
		Threshold:    bestSplit.Threshold,
		Gain:         bestSplit.Gain,
		LeftChild:    -2, // placeholder until children are built
		RightChild:   -2,
	})

	leftIndices, rightIndices := t.splitData(indices, bestSplit)

	leftChild := t.buildNode(tree, leftIndices, features, nodeIdx, depth+1)
	rightChild := t.buildNode(tree, rightIndices, features, nodeIdx, depth+1)

	tree.Nodes[nodeIdx].LeftChild = leftChild
	tree.Nodes[nodeIdx].RightChild = rightChild

	return nodeIdx
}

// appendLeaf adds a leaf node for the given samples.
func (t *Trainer) appendLeaf(tree *Tree, indices []int, parentIdx int) int {
	nodeIdx := len(tree.Nodes)
	tree.Nodes = append(tree.Nodes, Node{
		NodeID:     nodeIdx,
		ParentID:   parentIdx,
		LeafValue:  t.calculateLeafValue(indices),
		LeafCount:  len(indices),
		LeftChild:  -1,
		RightChild: -1,
	})
	return nodeIdx
}

// findBestSplit finds the best split over the candidate features.
func (t *Trainer) findBestSplit(indices []int, features []int) SplitInfo {
	bestSplit := SplitInfo{Gain: -math.MaxFloat64}

	for _, j := range features {
		split := t.findBestSplitForFeature(indices, j)
		if split.Gain > bestSplit.Gain {
			bestSplit = split
		}
	}

	return bestSplit
}

// findBestSplitForFeature scans the sorted values of one feature for the
// best threshold.
func (t *Trainer) findBestSplitForFeature(indices []int, feature int) SplitInfo {
	values := make([]struct {
		value float64
		idx   int
	}, len(indices))

	for i, idx := range indices {
		values[i] = struct {
			value float64
			idx   int
		}{value: t.X.At(idx, feature), idx: idx}
	}

	sort.Slice(values, func(i, j int) bool {
		return values[i].value < values[j].value
	})

	totalGrad := 0.0
	totalHess := 0.0
	for _, idx := range indices {
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}

	bestSplit := SplitInfo{
		Feature: feature,
		Gain:    -math.MaxFloat64,
	}

	leftGrad := 0.0
	leftHess := 0.0
	leftCount := 0

	for i := 0; i < len(values)-1; i++ {
		idx := values[i].idx
		leftGrad += t.gradients[idx]
		leftHess += t.hessians[idx]
		leftCount++

		// Cannot split between equal values
		if values[i].value == values[i+1].value {
			continue
		}

		rightGrad := totalGrad - leftGrad
		rightHess := totalHess - leftHess
		rightCount := len(indices) - leftCount

		if leftCount < t.params.MinDataInLeaf || rightCount < t.params.MinDataInLeaf {
			continue
		}

		gain := t.calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess)

		if gain > bestSplit.Gain {
			bestSplit.Gain = gain
			bestSplit.Threshold = (values[i].value + values[i+1].value) / 2
			bestSplit.LeftCount = leftCount
			bestSplit.RightCount = rightCount
			bestSplit.LeftGrad = leftGrad
			bestSplit.RightGrad = rightGrad
			bestSplit.LeftHess = leftHess
			bestSplit.RightHess = rightHess
		}
	}

	return bestSplit
}

// calculateSplitGain computes the gain of a split using the regularized
// gradient statistics.
func (t *Trainer) calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.Lambda

	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)

	return 0.5 * (leftScore + rightScore - totalScore)
}

// splitData partitions indices according to a split decision.
func (t *Trainer) splitData(indices []int, split SplitInfo) ([]int, []int) {
	var leftIndices, rightIndices []int

	for _, idx := range indices {
		if t.X.At(idx, split.Feature) <= split.Threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}

	return leftIndices, rightIndices
}

// calculateLeafValue computes the optimal value for a leaf node.
func (t *Trainer) calculateLeafValue(indices []int) float64 {
	sumGrad := 0.0
	sumHess := 0.0

	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}

	const epsilon = 1e-10
	if math.Abs(sumHess) < epsilon {
		sumHess = epsilon
	}

	return -sumGrad / (sumHess + t.params.Lambda + epsilon)
}

// updatePredictions adds the new tree's contribution to the running
// training predictions.
func (t *Trainer) updatePredictions(tree Tree) {
	rows, _ := t.X.Dims()
	for i := 0; i < rows; i++ {
		features := mat.Row(nil, i, t.X)
		t.predictions[i] += tree.Predict(features)
	}
}

// trainingLoss returns the mean squared error over the training rows.
func (t *Trainer) trainingLoss() float64 {
	rows, _ := t.y.Dims()
	loss := 0.0
	for i := 0; i < rows; i++ {
		diff := t.predictions[i] - t.y.At(i, 0)
		loss += diff * diff
	}
	return loss / float64(rows)
}

// countLeaves counts current and future leaves in a tree under construction.
func countLeaves(tree *Tree) int {
	count := 0
	for _, node := range tree.Nodes {
		if node.LeftChild == -1 && node.RightChild == -1 {
			count++
		}
	}
	return count
}

// GetModel returns the trained model.
func (t *Trainer) GetModel() *Model {
	model := NewModel()
	model.Trees = append([]Tree(nil), t.trees...)
	model.NumIteration = len(t.trees)
	model.NumFeatures = t.X.RawMatrix().Cols
	model.LearningRate = t.params.LearningRate
	model.NumLeaves = t.params.NumLeaves
	model.MaxDepth = t.params.MaxDepth
	model.InitScore = t.initScore
	model.BestIteration = t.bestIteration
	return model
}
