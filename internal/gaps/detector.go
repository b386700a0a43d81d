// Package gaps finds under-populated phonological regions of the corpus by
// walking the index's sorted order and measuring adjacent distances.
package gaps

import (
	"iter"

	"github.com/osoleve/namecorpus/internal/index"
	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
)

// DefaultThreshold is the adjacent-distance value above which a gap is
// reported. The boundary is strict: a distance exactly equal to the
// threshold is not a gap.
const DefaultThreshold = 3.0

// Gap is an under-populated region between two adjacent entries in the
// sorted corpus. Gaps carry no identity across detection runs; the sorted
// order shifts as the corpus grows.
type Gap struct {
	Left     *model.SyllabifiedName
	Right    *model.SyllabifiedName
	Distance float64
}

// Detector scans the index for gaps among qualifying entries.
type Detector struct {
	index     *index.MetricIndex
	pairs     *model.PairSet
	calc      metric.Calculator
	threshold float64
}

// New creates a Detector. A non-positive threshold falls back to
// DefaultThreshold.
func New(ix *index.MetricIndex, pairs *model.PairSet, calc metric.Calculator, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{index: ix, pairs: pairs, calc: calc, threshold: threshold}
}

// qualifies restricts gap analysis to positive phonological territory:
// entries appearing in a phonetic pair, plus synthetic entries admitted by
// the expansion loop. Semantic-alias-only entries are excluded.
func (d *Detector) qualifies(n *model.SyllabifiedName) bool {
	if n.Source == model.SourceSynthetic {
		return true
	}
	return d.pairs.InPhoneticPair(n.ID)
}

// Scan returns the gaps in the current corpus snapshot as a lazy sequence.
// Each call recomputes from the live index: finite, restartable, and
// reflecting any insertions since the previous call. Fewer than two
// qualifying entries yields an empty sequence.
func (d *Detector) Scan() iter.Seq[Gap] {
	return func(yield func(Gap) bool) {
		var prev *model.SyllabifiedName
		for _, entry := range d.index.Sorted() {
			if !d.qualifies(entry) {
				continue
			}
			if prev != nil {
				dist := d.calc.Distance(prev.Syllables, entry.Syllables)
				if dist > d.threshold {
					if !yield(Gap{Left: prev, Right: entry, Distance: dist}) {
						return
					}
				}
			}
			prev = entry
		}
	}
}

// Collect materializes the full gap list for a snapshot.
func (d *Detector) Collect() []Gap {
	var out []Gap
	for g := range d.Scan() {
		out = append(out, g)
	}
	return out
}
