// Package gbdt implements gradient-boosted decision tree regression with
// least-squares objective, row and feature subsampling, and early stopping
// against a validation set. Each model predicts a single scalar target.
package gbdt

import (
	"gonum.org/v1/gonum/mat"

	"github.com/robodyn/torquefit/pkg/errors"
)

// Node represents a single node in a decision tree.
type Node struct {
	// Node identification
	NodeID     int // Unique identifier for the node
	ParentID   int // Parent node ID (-1 for root)
	LeftChild  int // Left child node ID (-1 if leaf)
	RightChild int // Right child node ID (-1 if leaf)

	// Split information (for non-leaf nodes)
	SplitFeature int     // Feature index used for splitting
	Threshold    float64 // Threshold value for the split
	Gain         float64 // Split gain (reduction in loss)

	// Leaf information (for leaf nodes)
	LeafValue float64 // Value at leaf node
	LeafCount int     // Number of samples at leaf
}

// IsLeaf returns true if the node is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree represents a single regression tree in the ensemble.
type Tree struct {
	TreeIndex     int     // Index of the tree in the ensemble
	NumLeaves     int     // Number of leaf nodes
	ShrinkageRate float64 // Learning rate applied to this tree

	Nodes []Node // All nodes in the tree
}

// Predict evaluates the tree for a single sample. The shrinkage rate is
// already applied to the returned value.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0 // Start from root

	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]

		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}

		if features[node.SplitFeature] <= node.Threshold {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}

	return 0.0
}

// Model represents a trained gradient-boosted tree ensemble for one scalar
// regression target. Fields are exported for gob encoding.
type Model struct {
	NumIteration  int     // Number of boosting iterations kept
	BestIteration int     // Best iteration found by early stopping (-1 if unused)
	LearningRate  float64 // Base learning rate
	NumLeaves     int     // Maximum number of leaves per tree
	MaxDepth      int     // Maximum tree depth

	Trees []Tree // All trees in the ensemble

	NumFeatures int     // Number of input features
	InitScore   float64 // Initial score (baseline prediction)
}

// NewModel creates a new empty model.
func NewModel() *Model {
	return &Model{
		Trees:         make([]Tree, 0),
		BestIteration: -1,
		LearningRate:  0.1,
		NumLeaves:     31,
		MaxDepth:      -1,
	}
}

// PredictSingle predicts one sample. numIteration limits how many trees are
// used (-1 for all).
func (m *Model) PredictSingle(features []float64, numIteration int) float64 {
	if numIteration < 0 || numIteration > len(m.Trees) {
		numIteration = len(m.Trees)
	}

	pred := m.InitScore
	for i := 0; i < numIteration; i++ {
		pred += m.Trees[i].Predict(features)
	}
	return pred
}

// Predict makes predictions for a batch of samples, returning a column
// matrix with one prediction per row.
func (m *Model) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, errors.NewDimensionError("gbdt.Model.Predict", m.NumFeatures, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		features := mat.Row(nil, i, X)
		predictions.Set(i, 0, m.PredictSingle(features, -1))
	}

	return predictions, nil
}

// FeatureImportance returns one score per input feature. importanceType is
// "gain" (summed split gain) or "split" (split count). Scores are normalized
// to sum to one when any splits exist.
func (m *Model) FeatureImportance(importanceType string) []float64 {
	importance := make([]float64, m.NumFeatures)

	for _, tree := range m.Trees {
		for _, node := range tree.Nodes {
			if !node.IsLeaf() {
				switch importanceType {
				case "split":
					importance[node.SplitFeature]++
				case "gain":
					importance[node.SplitFeature] += node.Gain
				}
			}
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}

	return importance
}
