package topo

import (
	"container/heap"
	"math"
	"slices"
)

// Weights holds one effective area per arc vertex, parallel to
// [Topology.Arcs]. Arc end points weigh +Inf.
type Weights [][]float64

// triangle is a vertex with its two current neighbours.
type triangle struct {
	a, b, c    Position
	vertex     int
	area       float64
	prev, next *triangle
	index      int
}

func triangleArea(a, b, c Position) float64 {
	return math.Abs((a[0]-c[0])*(b[1]-a[1]) - (a[0]-b[0])*(c[1]-a[1]))
}

type minAreaHeap []*triangle

func (h minAreaHeap) Len() int           { return len(h) }
func (h minAreaHeap) Less(i, j int) bool { return h[i].area < h[j].area }
func (h minAreaHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *minAreaHeap) Push(x any) {
	t := x.(*triangle)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *minAreaHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Presimplify computes the Visvalingam effective area of every vertex.
// Areas are made monotonic: a vertex never weighs less than one removed
// before it, so filtering by any threshold is consistent.
func Presimplify(t *Topology) Weights {
	w := make(Weights, len(t.Arcs))
	for i, arc := range t.Arcs {
		w[i] = arcWeights(arc)
	}
	return w
}

func arcWeights(arc []Position) []float64 {
	n := len(arc)
	weights := make([]float64, n)
	if n == 0 {
		return weights
	}

	h := &minAreaHeap{}
	tris := make([]*triangle, 0, max(n-2, 0))
	for i := 1; i < n-1; i++ {
		tri := &triangle{a: arc[i-1], b: arc[i], c: arc[i+1], vertex: i}
		tri.area = triangleArea(tri.a, tri.b, tri.c)
		tris = append(tris, tri)
	}
	for i, tri := range tris {
		if i > 0 {
			tri.prev = tris[i-1]
		}
		if i < len(tris)-1 {
			tri.next = tris[i+1]
		}
		heap.Push(h, tri)
	}

	var maxArea float64
	for h.Len() > 0 {
		tri := heap.Pop(h).(*triangle)
		if tri.area < maxArea {
			tri.area = maxArea
		} else {
			maxArea = tri.area
		}
		weights[tri.vertex] = tri.area

		if p := tri.prev; p != nil {
			p.next = tri.next
			p.c = tri.c
			p.area = triangleArea(p.a, p.b, p.c)
			heap.Fix(h, p.index)
		}
		if nx := tri.next; nx != nil {
			nx.prev = tri.prev
			nx.a = tri.a
			nx.area = triangleArea(nx.a, nx.b, nx.c)
			heap.Fix(h, nx.index)
		}
	}

	weights[0] = math.Inf(1)
	weights[n-1] = math.Inf(1)
	return weights
}

// Quantile returns the p-quantile of all finite vertex weights, ranked
// from largest to smallest, interpolating between neighbours. Keeping the
// vertices at or above the result retains roughly the top p of them. It
// returns 0 when there are no interior vertices.
func Quantile(w Weights, p float64) float64 {
	var all []float64
	for _, arc := range w {
		for _, v := range arc {
			if !math.IsInf(v, 0) {
				all = append(all, v)
			}
		}
	}
	n := len(all)
	if n == 0 {
		return 0
	}
	slices.Sort(all)
	slices.Reverse(all)
	if p <= 0 || n < 2 {
		return all[0]
	}
	if p >= 1 {
		return all[n-1]
	}
	h := float64(n-1) * p
	i := int(math.Floor(h))
	a, b := all[i], all[i+1]
	return a + (b-a)*(h-float64(i))
}

// Simplify returns a copy of t keeping only vertices whose weight is at
// least minWeight. Objects are shared with t.
func Simplify(t *Topology, w Weights, minWeight float64) *Topology {
	out := &Topology{
		BBox:    t.BBox,
		Objects: t.Objects,
		Arcs:    make([][]Position, len(t.Arcs)),
	}
	for i, arc := range t.Arcs {
		kept := make([]Position, 0, len(arc))
		for j, p := range arc {
			if w[i][j] >= minWeight {
				kept = append(kept, p)
			}
		}
		out.Arcs[i] = kept
	}
	return out
}

// Simplified presimplifies t and keeps the top fraction p of vertices.
func (t *Topology) Simplified(p float64) *Topology {
	w := Presimplify(t)
	return Simplify(t, w, Quantile(w, p))
}
