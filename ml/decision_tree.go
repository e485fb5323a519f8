package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary tree stored as a flat node array with
// the root at index 0.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return errors.New("decision_tree: no nodes")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			continue
		}
		// children always follow their parent, which also rules out cycles
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) ||
			node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return fmt.Errorf("decision_tree: node %d has invalid children", i)
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("decision_tree: node %d has negative feature index", i)
		}
	}
	return nil
}

func (dt *DecisionTree) Kind() string { return KindDecisionTree }

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	if len(dt.Nodes) == 0 {
		return 0, errors.New("model not loaded")
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("feature index %d out of range for %d features", node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}
