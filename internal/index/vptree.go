package index

import (
	"container/heap"
	"math"
	"sort"

	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
)

// treeCalc is the pruning metric. Always flat: flat edit distance honors
// the triangle inequality, so VP-tree pruning never drops a candidate.
var treeCalc = metric.Calculator{Mode: metric.ModeFlat}

// vpNode is a vantage-point tree node. Entries at flat distance < mu from
// the vantage point live in inner, the rest in outer. mu is fixed when the
// first child arrives (incremental insert) or set to the median distance
// (Rebuild).
type vpNode struct {
	point        *model.SyllabifiedName
	mu           float64
	inner, outer *vpNode
}

func (ix *MetricIndex) treeInsert(node *vpNode, name *model.SyllabifiedName) *vpNode {
	if node == nil {
		return &vpNode{point: name}
	}
	d := treeCalc.Distance(name.Syllables, node.point.Syllables)
	if node.inner == nil && node.outer == nil {
		node.mu = d
		node.outer = &vpNode{point: name}
		return node
	}
	if d < node.mu {
		node.inner = ix.treeInsert(node.inner, name)
	} else {
		node.outer = ix.treeInsert(node.outer, name)
	}
	return node
}

// build constructs a balanced subtree: first entry as vantage point, the
// rest partitioned around the median distance. Consumes one entry per
// level, so it terminates even when all distances tie.
func (ix *MetricIndex) build(entries []*model.SyllabifiedName) *vpNode {
	if len(entries) == 0 {
		return nil
	}
	vp := entries[0]
	rest := entries[1:]
	if len(rest) == 0 {
		return &vpNode{point: vp}
	}

	type measured struct {
		entry *model.SyllabifiedName
		d     float64
	}
	ms := make([]measured, len(rest))
	for i, e := range rest {
		ms[i] = measured{entry: e, d: treeCalc.Distance(e.Syllables, vp.Syllables)}
	}
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].d != ms[j].d {
			return ms[i].d < ms[j].d
		}
		return entryLess(ms[i].entry, ms[j].entry)
	})

	mid := len(ms) / 2
	mu := ms[mid].d
	var inner, outer []*model.SyllabifiedName
	for _, m := range ms {
		if m.d < mu {
			inner = append(inner, m.entry)
		} else {
			outer = append(outer, m.entry)
		}
	}
	return &vpNode{
		point: vp,
		mu:    mu,
		inner: ix.build(inner),
		outer: ix.build(outer),
	}
}

func depth(node *vpNode) int {
	if node == nil {
		return 0
	}
	di, do := depth(node.inner), depth(node.outer)
	if do > di {
		di = do
	}
	return di + 1
}

// flatRadius collects entries within flat distance r of seq. Exact.
func flatRadius(node *vpNode, seq []string, r float64, hits *[]Result) {
	if node == nil {
		return
	}
	d := treeCalc.Distance(seq, node.point.Syllables)
	if d <= r {
		*hits = append(*hits, Result{Entry: node.point, Distance: d})
	}
	if node.inner != nil && d-r <= node.mu {
		flatRadius(node.inner, seq, r, hits)
	}
	if node.outer != nil && d+r >= node.mu {
		flatRadius(node.outer, seq, r, hits)
	}
}

// flatKNN collects the k flat-nearest entries into the heap.
func flatKNN(node *vpNode, seq []string, h *knnHeap) {
	if node == nil {
		return
	}
	d := treeCalc.Distance(seq, node.point.Syllables)
	h.offer(Result{Entry: node.point, Distance: d})

	tau := h.bound()
	if d < node.mu {
		if node.inner != nil && d-tau <= node.mu {
			flatKNN(node.inner, seq, h)
		}
		if node.outer != nil && d+h.bound() >= node.mu {
			flatKNN(node.outer, seq, h)
		}
	} else {
		if node.outer != nil && d+tau >= node.mu {
			flatKNN(node.outer, seq, h)
		}
		if node.inner != nil && d-h.bound() <= node.mu {
			flatKNN(node.inner, seq, h)
		}
	}
}

// knnHeap keeps the k best results seen so far, worst on top.
type knnHeap struct {
	k     int
	items []Result
}

func (h *knnHeap) Len() int { return len(h.items) }
func (h *knnHeap) Less(i, j int) bool {
	if h.items[i].Distance != h.items[j].Distance {
		return h.items[i].Distance > h.items[j].Distance
	}
	// Worst-first ordering: the lexicographically later entry is worse.
	return entryLess(h.items[j].Entry, h.items[i].Entry)
}
func (h *knnHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *knnHeap) Push(x any) { h.items = append(h.items, x.(Result)) }
func (h *knnHeap) Pop() any {
	last := h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]
	return last
}

// bound returns the current kth-best distance, or +Inf while under k.
func (h *knnHeap) bound() float64 {
	if len(h.items) < h.k {
		return math.Inf(1)
	}
	return h.items[0].Distance
}

func (h *knnHeap) offer(r Result) {
	if len(h.items) < h.k {
		heap.Push(h, r)
		return
	}
	worst := h.items[0]
	if r.Distance < worst.Distance ||
		(r.Distance == worst.Distance && entryLess(r.Entry, worst.Entry)) {
		h.items[0] = r
		heap.Fix(h, 0)
	}
}

func (h *knnHeap) results() []Result {
	out := make([]Result, len(h.items))
	copy(out, h.items)
	return out
}
