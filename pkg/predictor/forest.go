package predictor

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// TreeNode is one node of a regression tree. Leaves have Left == Right == -1.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// ForestModel averages the outputs of its trees, as a random forest regressor does.
type ForestModel struct {
	Trees []Tree `json:"trees"`
}

func (m *ForestModel) validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, ti)
		}
		for ni, n := range tree.Nodes {
			if n.Left == -1 && n.Right == -1 {
				continue
			}
			if n.Feature < 0 || n.Feature >= models.FeatureCount {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d", ErrFeatureArity, ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has invalid children", ErrInvalidArtifact, ti, ni)
			}
		}
	}
	return nil
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == -1 && n.Right == -1 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Predict implements Predictor.
func (m *ForestModel) Predict(ctx context.Context, features models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	x := features.Slice()
	outputs := make([]float64, len(m.Trees))
	for i, tree := range m.Trees {
		outputs[i] = tree.predict(x)
	}
	return stat.Mean(outputs, nil), nil
}

// Describe implements Describer.
func (m *ForestModel) Describe() string {
	return fmt.Sprintf("forest(%d trees)", len(m.Trees))
}
