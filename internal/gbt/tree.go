package gbt

// minSplitGain keeps float noise from producing zero-benefit splits.
const minSplitGain = 1e-12

type node struct {
	feature   int // -1 for a leaf
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

// predict walks from the root; rows with x < threshold go left.
func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		nd := &t.nodes[i]
		if nd.feature < 0 {
			return nd.value
		}
		if row[nd.feature] < nd.threshold {
			i = nd.left
		} else {
			i = nd.right
		}
	}
}

type grower struct {
	params   Params
	cuts     [][]float64
	bins     [][]uint16
	grad     []float64 // squared-error gradient; the hessian is 1 per row
	features []int
	gain     []float64
}

type split struct {
	feature int
	bin     int
	gain    float64
}

func (g *grower) grow(rows []int) tree {
	var t tree
	g.build(&t, rows, 0)
	return t
}

func (g *grower) build(t *tree, rows []int, depth int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{feature: -1})

	var sumG float64
	for _, r := range rows {
		sumG += g.grad[r]
	}
	sumH := float64(len(rows))

	best, ok := split{}, false
	if depth < g.params.MaxDepth && sumH >= 2*g.params.MinChildWeight {
		best, ok = g.bestSplit(rows, sumG, sumH)
	}
	if !ok {
		t.nodes[id].value = -sumG / (sumH + g.params.Lambda) * g.params.LearningRate
		return id
	}

	g.gain[best.feature] += best.gain

	col := g.bins[best.feature]
	var left, right []int
	for _, r := range rows {
		if int(col[r]) <= best.bin {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	l := g.build(t, left, depth+1)
	r := g.build(t, right, depth+1)
	t.nodes[id] = node{
		feature:   best.feature,
		threshold: g.cuts[best.feature][best.bin],
		left:      l,
		right:     r,
	}
	return id
}

func (g *grower) bestSplit(rows []int, sumG, sumH float64) (split, bool) {
	lambda := g.params.Lambda
	mcw := g.params.MinChildWeight
	parent := sumG * sumG / (sumH + lambda)

	var best split
	found := false
	for _, f := range g.features {
		cuts := g.cuts[f]
		if len(cuts) == 0 {
			continue
		}
		histG := make([]float64, len(cuts)+1)
		histH := make([]float64, len(cuts)+1)
		col := g.bins[f]
		for _, r := range rows {
			b := col[r]
			histG[b] += g.grad[r]
			histH[b]++
		}

		var gl, hl float64
		for b := 0; b < len(cuts); b++ {
			gl += histG[b]
			hl += histH[b]
			hr := sumH - hl
			if hl < mcw || hr < mcw {
				continue
			}
			gr := sumG - gl
			gain := gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent
			if gain > minSplitGain && (!found || gain > best.gain) {
				best = split{feature: f, bin: b, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
