// Package metric computes edit distances over syllable sequences, treating
// each syllable as an atomic symbol. The distance is the structural backbone
// of the corpus: the metric index, gap detection, and hard-negative mining
// all rely on it being pure and deterministic.
package metric

// Mode selects the substitution cost scheme.
type Mode string

const (
	// ModeFlat charges unit cost for any substitution between distinct
	// syllables. Satisfies the triangle inequality.
	ModeFlat Mode = "flat"
	// ModeWeighted derives substitution cost from the sonority distance
	// between the two syllables' nuclei. Costs stay within [0.5, 1.5],
	// which bounds how far the result can drift from a true metric; index
	// queries compensate with a pruning slack.
	ModeWeighted Mode = "weighted"
)

const (
	indelCost       = 1.0
	weightedSubBase = 0.5
)

// Calculator computes syllable-sequence distances under a fixed mode.
// The zero value computes flat distances.
type Calculator struct {
	Mode Mode
}

// SubstitutionCost returns the cost of substituting syllable a for b.
// Identical syllables always cost 0.
func (c Calculator) SubstitutionCost(a, b string) float64 {
	if a == b {
		return 0
	}
	if c.Mode != ModeWeighted {
		return 1
	}
	delta := NucleusSonority(a) - NucleusSonority(b)
	if delta < 0 {
		delta = -delta
	}
	return weightedSubBase + float64(delta)/float64(sonorityScaleMax)
}

// Distance computes the edit distance between two syllable sequences.
// d(x, x) = 0, d(x, y) = d(y, x), and an empty sequence against a sequence
// of n syllables costs exactly n (unit insertions in either mode).
func (c Calculator) Distance(a, b []string) float64 {
	n, m := len(a), len(b)
	if n == 0 {
		return float64(m) * indelCost
	}
	if m == 0 {
		return float64(n) * indelCost
	}

	// Two-row DP. Sequences are short (syllable counts, not characters),
	// so quadratic time is fine; rolling rows keep allocation flat.
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = float64(j) * indelCost
	}
	for i := 1; i <= n; i++ {
		curr[0] = float64(i) * indelCost
		for j := 1; j <= m; j++ {
			sub := prev[j-1] + c.SubstitutionCost(a[i-1], b[j-1])
			ins := curr[j-1] + indelCost
			del := prev[j] + indelCost
			curr[j] = min3(sub, ins, del)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

// PruningExpansion returns the factor by which a flat-distance search
// radius must be widened to guarantee it covers every entry within a given
// weighted radius. Weighted costs never drop below weightedSubBase times
// the flat cost of the same alignment, so flat(x,y) <= expansion *
// weighted(x,y) holds for all sequences. Flat mode needs no expansion.
func (c Calculator) PruningExpansion() float64 {
	if c.Mode != ModeWeighted {
		return 1
	}
	return 1 / weightedSubBase
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
