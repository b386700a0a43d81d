package extract

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
)

// PairCategory classifies a candidate pair by the scripts of its sides.
type PairCategory string

const (
	CategoryCrossScript PairCategory = "cross_script"
	CategoryLatinLatin  PairCategory = "latin_latin"
	CategoryNonLatin    PairCategory = "non_latin"
)

// CandidatePair is a within-entity name pair awaiting the judge.
type CandidatePair struct {
	PairID         string       `json:"pair_id"`
	EntityID       string       `json:"entity_id"`
	NameA          string       `json:"name_a"`
	ScriptA        string       `json:"script_a"`
	PropertyA      string       `json:"property_a"`
	NameB          string       `json:"name_b"`
	ScriptB        string       `json:"script_b"`
	PropertyB      string       `json:"property_b"`
	Category       PairCategory `json:"pair_category"`
	SourceDatasets []string     `json:"source_datasets"`
}

// PairConfig controls pair generation and capping.
type PairConfig struct {
	// PerEntityCap bounds pairs per entity; entities with many aliases
	// would otherwise dominate the corpus quadratically.
	PerEntityCap int
	// Seed feeds the entity-seeded RNG used for deterministic selection
	// under the cap.
	Seed uint64
	// Include restricts emitted categories; nil emits all three.
	Include map[PairCategory]bool
}

// DefaultPairConfig returns the standard cap and seed.
func DefaultPairConfig() PairConfig {
	return PairConfig{PerEntityCap: 100, Seed: 42}
}

// pairID derives a deterministic id from entity and canonical name order.
func pairID(entityID, nameA, nameB string) string {
	h := sha256.New()
	h.Write([]byte(entityID))
	h.Write([]byte{0})
	h.Write([]byte(nameA))
	h.Write([]byte{0})
	h.Write([]byte(nameB))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func classifyPair(domA, domB string) PairCategory {
	if domA == domB {
		if domA == "Latin" {
			return CategoryLatinLatin
		}
		return CategoryNonLatin
	}
	return CategoryCrossScript
}

// canonicalOrder fixes the side order so pair ids are stable: Latin first
// for cross-script pairs, otherwise ascending (script, text).
func canonicalOrder(a NameRecord, domA string, b NameRecord, domB string, cat PairCategory) (NameRecord, string, NameRecord, string) {
	if cat == CategoryCrossScript {
		if domA == "Latin" {
			return a, domA, b, domB
		}
		if domB == "Latin" {
			return b, domB, a, domA
		}
	}
	if domA < domB || (domA == domB && a.Text <= b.Text) {
		return a, domA, b, domB
	}
	return b, domB, a, domA
}

// GeneratePairs emits all C(n,2) within-entity pairs, classified and
// canonically ordered, capped per entity with priority cross_script >
// latin_latin > non_latin. Selection under the cap uses an entity-seeded
// RNG so output is deterministic across runs and processes.
func GeneratePairs(entity EntityRecord, cfg PairConfig) []CandidatePair {
	if len(entity.Names) < 2 {
		return nil
	}
	if cfg.PerEntityCap <= 0 {
		cfg.PerEntityCap = 100
	}

	dominants := make([]string, len(entity.Names))
	for i, nr := range entity.Names {
		dominants[i] = DominantScript(nr.Scripts)
	}

	byCategory := map[PairCategory][]CandidatePair{}
	for i := 0; i < len(entity.Names); i++ {
		for j := i + 1; j < len(entity.Names); j++ {
			cat := classifyPair(dominants[i], dominants[j])
			if cfg.Include != nil && !cfg.Include[cat] {
				continue
			}
			a, domA, b, domB := canonicalOrder(entity.Names[i], dominants[i], entity.Names[j], dominants[j], cat)
			byCategory[cat] = append(byCategory[cat], CandidatePair{
				PairID:         pairID(entity.EntityID, a.Text, b.Text),
				EntityID:       entity.EntityID,
				NameA:          a.Text,
				ScriptA:        domA,
				PropertyA:      a.SourceProperty,
				NameB:          b.Text,
				ScriptB:        domB,
				PropertyB:      b.SourceProperty,
				Category:       cat,
				SourceDatasets: entity.Datasets,
			})
		}
	}

	// Entity-seeded RNG: derive from a stable hash of the entity id, not
	// the per-process map hash.
	sum := sha256.Sum256([]byte(entity.EntityID))
	rng := rand.New(rand.NewPCG(cfg.Seed^binary.BigEndian.Uint64(sum[:8]), 0))

	budget := cfg.PerEntityCap
	var selected []CandidatePair
	for _, tier := range []PairCategory{CategoryCrossScript, CategoryLatinLatin, CategoryNonLatin} {
		candidates := byCategory[tier]
		if len(candidates) == 0 || budget <= 0 {
			continue
		}
		if len(candidates) <= budget {
			selected = append(selected, candidates...)
			budget -= len(candidates)
			continue
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		selected = append(selected, candidates[:budget]...)
		budget = 0
	}
	return selected
}
