package boost

import "sort"

// Node is a tree node. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Gain      float64 `json:"g,omitempty"`
}

// Tree is a regression tree stored as a flat node slice, root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree. Values below the threshold go left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// minSplitGain keeps numerically meaningless splits out of the tree.
const minSplitGain = 1e-6

type treeBuilder struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params Params
	nodes  []Node
}

// buildTree grows one second-order regression tree over the gradient
// statistics, depth-first, greedily picking the split with the best gain.
func buildTree(x [][]float64, grad, hess []float64, p Params) Tree {
	b := &treeBuilder{x: x, grad: grad, hess: hess, params: p}
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	b.grow(rows, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}
	lambda := b.params.RegLambda

	if depth < b.params.MaxDepth && len(rows) >= 2 {
		if s, ok := b.bestSplit(rows, g, h); ok {
			var left, right []int
			for _, r := range rows {
				if b.x[r][s.feature] < s.threshold {
					left = append(left, r)
				} else {
					right = append(right, r)
				}
			}
			l := b.grow(left, depth+1)
			rt := b.grow(right, depth+1)
			b.nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: l, Right: rt, Gain: s.gain}
			return id
		}
	}

	b.nodes[id].Value = -g / (h + lambda) * b.params.LearningRate
	return id
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) bestSplit(rows []int, g, h float64) (split, bool) {
	lambda := b.params.RegLambda
	parent := g * g / (h + lambda)
	best := split{gain: minSplitGain}
	found := false

	sorted := make([]int, len(rows))
	for f := range b.x[rows[0]] {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var gl, hl float64
		for i := 0; i < len(sorted)-1; i++ {
			r := sorted[i]
			gl += b.grad[r]
			hl += b.hess[r]

			v, next := b.x[r][f], b.x[sorted[i+1]][f]
			if v == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := 0.5*(gl*gl/(hl+lambda)+gr*gr/(hr+lambda)-parent) - b.params.Gamma
			if gain > best.gain {
				best = split{feature: f, threshold: (v + next) / 2, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
