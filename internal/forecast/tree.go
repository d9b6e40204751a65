package forecast

import "sort"

// treeNode is one node of a fitted regression tree. Fields are exported
// for gob serialization.
type treeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *treeNode
	Right     *treeNode
}

// regressionTree is a CART regressor: binary splits minimizing the sum of
// squared errors, mean prediction at the leaves.
type regressionTree struct {
	Root *treeNode
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
}

func fitTree(features [][]float64, labels []float64, idx []int, params treeParams) *regressionTree {
	return &regressionTree{Root: buildNode(features, labels, idx, 0, params)}
}

func buildNode(features [][]float64, labels []float64, idx []int, depth int, params treeParams) *treeNode {
	if depth >= params.maxDepth || len(idx) < params.minSamplesSplit {
		return leafNode(labels, idx)
	}

	feature, threshold, ok := bestSplit(features, labels, idx, params.minSamplesLeaf)
	if !ok {
		return leafNode(labels, idx)
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < params.minSamplesLeaf || len(right) < params.minSamplesLeaf {
		return leafNode(labels, idx)
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildNode(features, labels, left, depth+1, params),
		Right:     buildNode(features, labels, right, depth+1, params),
	}
}

func leafNode(labels []float64, idx []int) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += labels[i]
	}
	return &treeNode{Leaf: true, Value: sum / float64(len(idx))}
}

// bestSplit scans every feature for the threshold with the lowest total
// squared error, using prefix sums over the sorted sample order.
func bestSplit(features [][]float64, labels []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	bestScore := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	totalSum := 0.0
	totalSq := 0.0
	for _, i := range idx {
		totalSum += labels[i]
		totalSq += labels[i] * labels[i]
	}
	baseScore := totalSq - totalSum*totalSum/float64(n)

	order := make([]int, n)
	numFeatures := len(features[idx[0]])

	for f := 0; f < numFeatures; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return features[order[a]][f] < features[order[b]][f]
		})

		leftSum, leftSq := 0.0, 0.0
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += labels[i]
			leftSq += labels[i] * labels[i]

			// Only split between distinct feature values
			if features[order[pos]][f] == features[order[pos+1]][f] {
				continue
			}

			nl := pos + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			score := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))

			if bestFeature == -1 || score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (features[order[pos]][f] + features[order[pos+1]][f]) / 2
			}
		}
	}

	if bestFeature == -1 || bestScore >= baseScore {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (t *regressionTree) predict(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}
