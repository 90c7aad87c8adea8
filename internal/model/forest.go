package model

import (
	"math/rand"
	"sort"
)

// node is one regression-tree node in flat array form. Leaves carry the mean
// target of their training samples; internal nodes split on feature <=
// threshold with children addressed by index.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// forest is a bagged ensemble of regression trees; its prediction is the
// mean of the per-tree predictions.
type forest struct {
	Trees []tree `json:"trees"`
}

func (f *forest) predict(row []float64) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(row)
	}
	return sum / float64(len(f.Trees))
}

// growParams bounds tree growth
type growParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
}

// trainForest builds an ensemble over rows/targets. Each tree sees a
// bootstrap sample and considers a random feature subset per split. The rng
// fully determines the result, so a fixed seed gives a reproducible model.
func trainForest(rows [][]float64, targets []float64, trees int, gp growParams, rng *rand.Rand) forest {
	f := forest{Trees: make([]tree, 0, trees)}

	for i := 0; i < trees; i++ {
		sample := make([]int, len(rows))
		for j := range sample {
			sample[j] = rng.Intn(len(rows))
		}

		t := tree{}
		growTree(&t, rows, targets, sample, 0, gp, rng)
		f.Trees = append(f.Trees, t)
	}

	return f
}

// growTree appends the subtree for idx (indices into rows) and returns the
// position of its root node.
func growTree(t *tree, rows [][]float64, targets []float64, idx []int, depth int, gp growParams, rng *rand.Rand) int {
	mean := meanTarget(targets, idx)

	if depth >= gp.maxDepth || len(idx) < gp.minSamplesSplit || isPure(targets, idx) {
		return appendLeaf(t, mean)
	}

	feat, threshold, ok := bestSplit(rows, targets, idx, gp, rng)
	if !ok {
		return appendLeaf(t, mean)
	}

	var left, right []int
	for _, i := range idx {
		if rows[i][feat] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < gp.minSamplesLeaf || len(right) < gp.minSamplesLeaf {
		return appendLeaf(t, mean)
	}

	// Reserve the parent slot before growing children so indices stay stable
	pos := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{})

	l := growTree(t, rows, targets, left, depth+1, gp, rng)
	r := growTree(t, rows, targets, right, depth+1, gp, rng)

	t.Nodes[pos] = node{Feature: feat, Threshold: threshold, Left: l, Right: r}
	return pos
}

func appendLeaf(t *tree, value float64) int {
	t.Nodes = append(t.Nodes, node{Leaf: true, Value: value})
	return len(t.Nodes) - 1
}

// bestSplit searches a random feature subset for the split that most reduces
// the sum of squared errors.
func bestSplit(rows [][]float64, targets []float64, idx []int, gp growParams, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(rows[idx[0]])
	candidates := rng.Perm(nFeatures)
	if gp.maxFeatures < nFeatures {
		candidates = candidates[:gp.maxFeatures]
	}
	// A fixed evaluation order keeps tie-breaks deterministic
	sort.Ints(candidates)

	bestSSE := sseAround(targets, idx)
	var bestFeat int
	var bestThreshold float64
	found := false

	type pair struct{ value, target float64 }
	pairs := make([]pair, len(idx))

	for _, feat := range candidates {
		for i, j := range idx {
			pairs[i] = pair{rows[j][feat], targets[j]}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

		// Prefix sums over the sorted order let each threshold be scored in
		// constant time.
		var leftSum, leftSq float64
		var totalSum, totalSq float64
		for _, p := range pairs {
			totalSum += p.target
			totalSq += p.target * p.target
		}

		for i := 0; i < len(pairs)-1; i++ {
			leftSum += pairs[i].target
			leftSq += pairs[i].target * pairs[i].target

			if pairs[i].value == pairs[i+1].value {
				continue
			}

			nLeft := float64(i + 1)
			nRight := float64(len(pairs) - i - 1)
			sse := (leftSq - leftSum*leftSum/nLeft) +
				((totalSq - leftSq) - (totalSum-leftSum)*(totalSum-leftSum)/nRight)

			if sse < bestSSE-1e-12 {
				bestSSE = sse
				bestFeat = feat
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
				found = true
			}
		}
	}

	return bestFeat, bestThreshold, found
}

func meanTarget(targets []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}

func sseAround(targets []float64, idx []int) float64 {
	mean := meanTarget(targets, idx)
	var sse float64
	for _, i := range idx {
		d := targets[i] - mean
		sse += d * d
	}
	return sse
}

func isPure(targets []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if targets[i] != targets[idx[0]] {
			return false
		}
	}
	return true
}
