// Package miner produces hard-negative candidates for contrastive training:
// phonologically near-miss neighbors from the metric index, plus semantic
// aliases that happen to sit close in syllable space.
package miner

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/index"
	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
)

// Config bounds the mining distance bands.
type Config struct {
	// MinDistance excludes near-duplicates of the anchor. Default 1:
	// distance-0 copies are never negatives.
	MinDistance float64
	// MaxDistance is the metric-neighbor radius. Default 2.
	MaxDistance float64
	// LooseRadius is the proximity band for semantic-alias negatives:
	// an alias only counts as a hard negative if it is within this
	// distance of the anchor or of the anchor's positive. Default 4.
	LooseRadius float64
}

// DefaultConfig returns the standard mining bands.
func DefaultConfig() Config {
	return Config{MinDistance: 1, MaxDistance: 2, LooseRadius: 4}
}

// Negative is one mined hard-negative candidate.
type Negative struct {
	ID     string
	Source model.NegativeSource
}

// Miner mines hard negatives against a corpus snapshot. Output is
// deterministic for a fixed snapshot and configuration.
type Miner struct {
	index *index.MetricIndex
	pairs *model.PairSet
	calc  metric.Calculator
	cfg   Config
}

// New creates a Miner. Zero config fields fall back to defaults.
func New(ix *index.MetricIndex, pairs *model.PairSet, calc metric.Calculator, cfg Config) *Miner {
	def := DefaultConfig()
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = def.MinDistance
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = def.MaxDistance
	}
	if cfg.LooseRadius <= 0 {
		cfg.LooseRadius = def.LooseRadius
	}
	return &Miner{index: ix, pairs: pairs, calc: calc, cfg: cfg}
}

// Mine returns the hard negatives for a single anchor. Metric neighbors
// are entries inside [MinDistance, MaxDistance] that are not phonetic
// variants or transliterations of the anchor; semantic-alias negatives are
// aliases of the anchor within LooseRadius of the anchor or its positive.
// positiveID may be empty when the anchor has no positive under
// consideration.
func (m *Miner) Mine(anchor *model.SyllabifiedName, positiveID string) ([]Negative, error) {
	hits, err := m.index.QueryRadius(anchor.Syllables, m.cfg.MaxDistance)
	if err != nil {
		return nil, eris.Wrapf(err, "miner: radius query for %s", anchor.ID)
	}

	var negatives []Negative
	seen := map[string]bool{anchor.ID: true}

	for _, h := range hits {
		id := h.Entry.ID
		if seen[id] || h.Distance < m.cfg.MinDistance {
			continue
		}
		if m.pairs.IsPhoneticMatch(anchor.ID, id) {
			continue
		}
		seen[id] = true
		negatives = append(negatives, Negative{ID: id, Source: model.NegativeMetricNeighbor})
	}

	var positive *model.SyllabifiedName
	if positiveID != "" {
		positive = m.index.Get(positiveID)
	}
	aliases := append([]string(nil), m.pairs.SemanticAliases(anchor.ID)...)
	sort.Strings(aliases)
	for _, id := range aliases {
		if seen[id] {
			continue
		}
		entry := m.index.Get(id)
		if entry == nil {
			continue
		}
		if !m.withinLoose(entry, anchor, positive) {
			continue
		}
		seen[id] = true
		negatives = append(negatives, Negative{ID: id, Source: model.NegativeSemanticAlias})
	}

	return negatives, nil
}

// MineAll mines every anchor and returns the anchor-to-negatives mapping.
// No per-anchor cap is applied here; bounding for training-batch balance
// is caller policy.
func (m *Miner) MineAll(anchors []*model.SyllabifiedName) (map[string][]Negative, error) {
	out := make(map[string][]Negative, len(anchors))
	for _, anchor := range anchors {
		positives := m.pairs.PhoneticPartners(anchor.ID)
		sort.Strings(positives)
		positiveID := ""
		if len(positives) > 0 {
			positiveID = positives[0]
		}
		negs, err := m.Mine(anchor, positiveID)
		if err != nil {
			return nil, err
		}
		if len(negs) > 0 {
			out[anchor.ID] = negs
		}
	}
	zap.L().Info("mining complete",
		zap.Int("anchors", len(anchors)),
		zap.Int("anchors_with_negatives", len(out)),
	)
	return out, nil
}

// AlignPairs computes the distance and syllable-level operation trace for
// every phonetic pair whose two sides are present in the index, in sorted
// (anchor, other) order. Exported alongside the triplets so downstream
// training can inspect which operations separate a judged pair.
func (m *Miner) AlignPairs() []model.DistanceResult {
	var phonetic []model.Pair
	for _, p := range m.pairs.Pairs() {
		if p.Type.IsPhonetic() {
			phonetic = append(phonetic, p)
		}
	}
	sort.Slice(phonetic, func(i, j int) bool {
		if phonetic[i].AnchorID != phonetic[j].AnchorID {
			return phonetic[i].AnchorID < phonetic[j].AnchorID
		}
		return phonetic[i].OtherID < phonetic[j].OtherID
	})

	var out []model.DistanceResult
	for _, p := range phonetic {
		a, b := m.index.Get(p.AnchorID), m.index.Get(p.OtherID)
		if a == nil || b == nil {
			continue
		}
		d, ops := m.calc.DistanceWithAlignment(a.Syllables, b.Syllables)
		out = append(out, model.DistanceResult{
			AID:       a.ID,
			BID:       b.ID,
			Distance:  d,
			Alignment: ops,
		})
	}
	return out
}

func (m *Miner) withinLoose(entry, anchor, positive *model.SyllabifiedName) bool {
	if m.calc.Distance(entry.Syllables, anchor.Syllables) <= m.cfg.LooseRadius {
		return true
	}
	if positive != nil && m.calc.Distance(entry.Syllables, positive.Syllables) <= m.cfg.LooseRadius {
		return true
	}
	return false
}
