// Package index maintains the nearest-neighbor-queryable metric structure
// over the growing corpus: a lexicographically sorted entry list paired
// with a vantage-point tree, both updated atomically on insert.
package index

import (
	"math"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
)

var (
	// ErrDuplicateID is returned when an insert reuses an existing id.
	// Programmer error: never retried, the index is left unchanged.
	ErrDuplicateID = eris.New("index: duplicate id")
	// ErrInvalidEntry is returned for a malformed entry (empty or blank
	// syllable sequence).
	ErrInvalidEntry = eris.New("index: invalid entry")
	// ErrInvalidQuery is returned for a bad radius or k. Queries fail fast
	// rather than silently returning partial results.
	ErrInvalidQuery = eris.New("index: invalid query")
)

// Result is a query hit with its distance from the query sequence.
type Result struct {
	Entry    *model.SyllabifiedName
	Distance float64
}

// Config tunes index behavior.
type Config struct {
	// Calculator supplies the reported distance. Its mode is fixed for
	// the index's lifetime; mixing modes would corrupt the tree.
	//
	// The vantage-point tree itself always prunes on the flat distance,
	// which is a true metric. Weighted queries run against the tree with
	// the search radius widened by Calculator.PruningExpansion and then
	// re-filter on the weighted distance, so results are exact in both
	// modes despite the weighted distance not honoring the triangle
	// inequality.
	Calculator metric.Calculator

	// MaxDepthFactor triggers Rebuild advice: when tree depth exceeds
	// MaxDepthFactor * log2(n), the tree has degraded enough that a
	// rebuild pays off. Incremental inserts stay correct regardless.
	MaxDepthFactor float64
}

// DefaultConfig returns an index configuration for the given distance mode.
func DefaultConfig(mode metric.Mode) Config {
	return Config{
		Calculator:     metric.Calculator{Mode: mode},
		MaxDepthFactor: 4.0,
	}
}

// MetricIndex is the corpus's queryable metric structure. A single writer
// (Insert/Rebuild) is serialized behind the write lock; any number of
// readers query concurrently against a consistent snapshot.
type MetricIndex struct {
	mu     sync.RWMutex
	cfg    Config
	byID   map[string]*model.SyllabifiedName
	sorted []*model.SyllabifiedName // ordered by (Form, ID)
	root   *vpNode
}

// New creates an empty index.
func New(cfg Config) *MetricIndex {
	if cfg.MaxDepthFactor <= 0 {
		cfg.MaxDepthFactor = 4.0
	}
	return &MetricIndex{
		cfg:  cfg,
		byID: make(map[string]*model.SyllabifiedName),
	}
}

// Len returns the number of entries.
func (ix *MetricIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.sorted)
}

// Insert adds an entry. The entry is visible to queries as soon as Insert
// returns; both the sorted order and the tree are updated under the write
// lock, so no partially inserted state is ever observable.
func (ix *MetricIndex) Insert(name *model.SyllabifiedName) error {
	if err := validate(name); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.byID[name.ID]; exists {
		return eris.Wrapf(ErrDuplicateID, "id %s", name.ID)
	}

	ix.byID[name.ID] = name
	pos := sort.Search(len(ix.sorted), func(i int) bool {
		return !entryLess(ix.sorted[i], name)
	})
	ix.sorted = append(ix.sorted, nil)
	copy(ix.sorted[pos+1:], ix.sorted[pos:])
	ix.sorted[pos] = name

	ix.root = ix.treeInsert(ix.root, name)
	return nil
}

// Sorted returns the entries in lexicographic (Form, ID) order. The
// returned slice is a snapshot; callers may not mutate the entries.
func (ix *MetricIndex) Sorted() []*model.SyllabifiedName {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]*model.SyllabifiedName, len(ix.sorted))
	copy(out, ix.sorted)
	return out
}

// Get returns the entry with the given id, or nil.
func (ix *MetricIndex) Get(id string) *model.SyllabifiedName {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.byID[id]
}

// QueryRadius returns all entries within distance r of seq under the
// configured distance mode, ascending by distance with ties broken by
// lexicographic order of the syllabified form then by id.
func (ix *MetricIndex) QueryRadius(seq []string, r float64) ([]Result, error) {
	if r < 0 {
		return nil, eris.Wrapf(ErrInvalidQuery, "negative radius %v", r)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := ix.radiusLocked(seq, r)
	sortResults(hits)
	return hits, nil
}

// radiusLocked runs the envelope search: flat-tree candidates within the
// widened radius, re-measured and filtered under the reported calculator.
// Caller holds at least the read lock.
func (ix *MetricIndex) radiusLocked(seq []string, r float64) []Result {
	var candidates []Result
	flatRadius(ix.root, seq, r*ix.cfg.Calculator.PruningExpansion(), &candidates)

	if ix.cfg.Calculator.Mode != metric.ModeWeighted {
		return candidates
	}
	hits := candidates[:0]
	for _, c := range candidates {
		d := ix.cfg.Calculator.Distance(seq, c.Entry.Syllables)
		if d <= r {
			hits = append(hits, Result{Entry: c.Entry, Distance: d})
		}
	}
	if len(hits) == 0 {
		// Both modes report an empty result the same way.
		return nil
	}
	return hits
}

// QueryKNN returns the k closest entries to seq under the same tie-break
// rule as QueryRadius. If fewer than k entries exist, all are returned.
func (ix *MetricIndex) QueryKNN(seq []string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, eris.Wrapf(ErrInvalidQuery, "non-positive k %d", k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	h := &knnHeap{k: k}
	flatKNN(ix.root, seq, h)
	hits := h.results()

	if ix.cfg.Calculator.Mode == metric.ModeWeighted && len(hits) > 0 {
		// The k flat-nearest give an upper bound on the kth weighted
		// distance; every true weighted neighbor lies within that bound.
		bound := 0.0
		for _, c := range hits {
			if d := ix.cfg.Calculator.Distance(seq, c.Entry.Syllables); d > bound {
				bound = d
			}
		}
		hits = ix.radiusLocked(seq, bound)
	}

	sortResults(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// NeedsRebuild reports whether incremental insertion has degraded tree
// balance past the configured depth threshold.
func (ix *MetricIndex) NeedsRebuild() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := len(ix.sorted)
	if n < 8 {
		return false
	}
	limit := ix.cfg.MaxDepthFactor * math.Log2(float64(n))
	return float64(depth(ix.root)) > limit
}

// Rebuild reconstructs a balanced tree from the sorted set. Performance
// escape valve only; queries are correct either way.
func (ix *MetricIndex) Rebuild() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	entries := make([]*model.SyllabifiedName, len(ix.sorted))
	copy(entries, ix.sorted)
	ix.root = ix.build(entries)
}

func validate(name *model.SyllabifiedName) error {
	if name == nil || name.ID == "" {
		return eris.Wrap(ErrInvalidEntry, "missing entry or id")
	}
	if len(name.Syllables) == 0 {
		return eris.Wrapf(ErrInvalidEntry, "id %s: empty syllable sequence", name.ID)
	}
	for _, s := range name.Syllables {
		if s == "" {
			return eris.Wrapf(ErrInvalidEntry, "id %s: blank syllable", name.ID)
		}
	}
	return nil
}

func entryLess(a, b *model.SyllabifiedName) bool {
	fa, fb := a.Form(), b.Form()
	if fa != fb {
		return fa < fb
	}
	return a.ID < b.ID
}

func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Distance != rs[j].Distance {
			return rs[i].Distance < rs[j].Distance
		}
		return entryLess(rs[i].Entry, rs[j].Entry)
	})
}
