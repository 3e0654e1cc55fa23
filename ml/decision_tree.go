package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type DecisionTree struct {
	columns []string
	nodes   []TreeNode
}

type TreeNode struct {
	FeatureIdx  int       `json:"feature_idx"`
	Threshold   float64   `json:"threshold"`
	LeftChild   int       `json:"left_child"`
	RightChild  int       `json:"right_child"`
	ClassLabel  int       `json:"class_label"`
	ClassCounts []float64 `json:"class_counts,omitempty"`
	IsLeaf      bool      `json:"is_leaf"`
}

type decisionTreeArtifact struct {
	Columns []string   `json:"columns,omitempty"`
	Nodes   []TreeNode `json:"nodes"`
}

func NewDecisionTree(columns []string, nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{columns: columns, nodes: nodes}
	if err := dt.check(); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Columns() []string {
	return append([]string(nil), dt.columns...)
}

func (dt *DecisionTree) Predict(row []float64) (int, error) {
	leaf, err := dt.leaf(row)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

// PredictProbability returns the class distribution of the leaf row lands
// in. Leaves without counts are treated as pure.
func (dt *DecisionTree) PredictProbability(row []float64) ([]float64, error) {
	leaf, err := dt.leaf(row)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, 2)
	total := 0.0
	for _, c := range leaf.ClassCounts {
		total += c
	}
	if total <= 0 {
		if leaf.ClassLabel < 0 || leaf.ClassLabel > 1 {
			return nil, fmt.Errorf("leaf class %d is not binary", leaf.ClassLabel)
		}
		probs[leaf.ClassLabel] = 1
		return probs, nil
	}
	for i := 0; i < len(probs) && i < len(leaf.ClassCounts); i++ {
		probs[i] = leaf.ClassCounts[i] / total
	}
	return probs, nil
}

func (dt *DecisionTree) leaf(row []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	if len(dt.columns) > 0 && len(row) != len(dt.columns) {
		return TreeNode{}, fmt.Errorf("expected %d features, got %d", len(dt.columns), len(row))
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(row) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
	}
	return TreeNode{}, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not loaded")
	}
	payload, err := json.Marshal(decisionTreeArtifact{Columns: dt.columns, Nodes: dt.nodes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact decisionTreeArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("decode decision tree: %w", err)
	}
	dt.columns = artifact.Columns
	dt.nodes = artifact.Nodes
	return dt.check()
}

func (dt *DecisionTree) check() error {
	if len(dt.nodes) == 0 {
		return errors.New("decision tree has no nodes")
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			continue
		}
		if node.LeftChild <= 0 || node.LeftChild >= len(dt.nodes) ||
			node.RightChild <= 0 || node.RightChild >= len(dt.nodes) {
			return fmt.Errorf("node %d has children out of range", i)
		}
		if len(dt.columns) > 0 && node.FeatureIdx >= len(dt.columns) {
			return fmt.Errorf("node %d splits on feature %d of %d", i, node.FeatureIdx, len(dt.columns))
		}
	}
	return nil
}
