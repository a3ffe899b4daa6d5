package model

import "sort"

// TreeNode is one node of a depth-limited regression tree. Internal nodes
// route on Feature < Threshold; leaves carry the additive score update.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     float64   `json:"value,omitempty"`
}

// Predict routes one standardized row to its leaf value
func (n *TreeNode) Predict(row []float64) float64 {
	node := n
	for !node.Leaf {
		if row[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

const minSamplesLeaf = 5

// buildTree grows a regression tree on the boosting gradients. Splits
// greedily maximize squared-error reduction of the gradient; leaf values
// are the Newton step sum(grad)/sum(hess).
func buildTree(X [][]float64, grad, hess []float64, indices []int, depth, maxDepth int) *TreeNode {
	if depth >= maxDepth || len(indices) < 2*minSamplesLeaf {
		return leafNode(grad, hess, indices)
	}

	feature, threshold, ok := bestSplit(X, grad, indices)
	if !ok {
		return leafNode(grad, hess, indices)
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minSamplesLeaf || len(right) < minSamplesLeaf {
		return leafNode(grad, hess, indices)
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, grad, hess, left, depth+1, maxDepth),
		Right:     buildTree(X, grad, hess, right, depth+1, maxDepth),
	}
}

func leafNode(grad, hess []float64, indices []int) *TreeNode {
	var g, h float64
	for _, i := range indices {
		g += grad[i]
		h += hess[i]
	}
	// hessian floor keeps the Newton step finite for pure leaves
	if h < 1e-9 {
		h = 1e-9
	}
	return &TreeNode{Leaf: true, Value: g / h}
}

// bestSplit scans every feature for the split that most reduces the
// gradient's squared error.
func bestSplit(X [][]float64, grad []float64, indices []int) (feature int, threshold float64, ok bool) {
	var totalSum float64
	for _, i := range indices {
		totalSum += grad[i]
	}
	n := float64(len(indices))
	baseScore := totalSum * totalSum / n

	bestGain := 1e-12
	nFeatures := len(X[indices[0]])

	order := make([]int, len(indices))
	for f := 0; f < nFeatures; f++ {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var leftSum float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftSum += grad[i]

			cur, next := X[i][f], X[order[pos+1]][f]
			if cur == next {
				continue
			}
			leftN := float64(pos + 1)
			rightSum := totalSum - leftSum
			rightN := n - leftN

			gain := leftSum*leftSum/leftN + rightSum*rightSum/rightN - baseScore
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}
