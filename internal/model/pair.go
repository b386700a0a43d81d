package model

// PairType classifies the judged relationship between two names.
type PairType string

const (
	PairPhoneticTransliteration PairType = "phonetic_transliteration"
	PairPhoneticVariant         PairType = "phonetic_variant"
	PairSemanticAlias           PairType = "semantic_alias"
	PairAmbiguous               PairType = "ambiguous"
)

// IsPhonetic reports whether the pair type denotes positive phonological
// territory (as opposed to semantic aliases and ambiguous judgments).
func (t PairType) IsPhonetic() bool {
	return t == PairPhoneticTransliteration || t == PairPhoneticVariant
}

// Pair is a labeled relationship between two corpus entries, produced by
// the upstream judge and consumed read-only here.
type Pair struct {
	ID              string   `json:"id"`
	AnchorID        string   `json:"anchor_id"`
	OtherID         string   `json:"other_id"`
	Type            PairType `json:"pair_type"`
	Source          string   `json:"source"`
	JudgeConfidence float64  `json:"judge_confidence,omitempty"`
	SimilarityScore float64  `json:"similarity_score,omitempty"`
}

// PairSet is a read-only view over the judged pairs, indexed for the
// cross-reference lookups mining and gap analysis need.
type PairSet struct {
	pairs      []Pair
	phonetic   map[string]map[string]bool // id -> ids phonetically paired with it
	semantic   map[string][]string        // id -> ids labeled semantic_alias of it
	phoneticID map[string]bool            // ids appearing in any phonetic pair
}

// NewPairSet builds the lookup structures from a pair slice.
func NewPairSet(pairs []Pair) *PairSet {
	ps := &PairSet{
		pairs:      pairs,
		phonetic:   make(map[string]map[string]bool),
		semantic:   make(map[string][]string),
		phoneticID: make(map[string]bool),
	}
	link := func(m map[string]map[string]bool, a, b string) {
		if m[a] == nil {
			m[a] = make(map[string]bool)
		}
		m[a][b] = true
	}
	for _, p := range pairs {
		switch {
		case p.Type.IsPhonetic():
			link(ps.phonetic, p.AnchorID, p.OtherID)
			link(ps.phonetic, p.OtherID, p.AnchorID)
			ps.phoneticID[p.AnchorID] = true
			ps.phoneticID[p.OtherID] = true
		case p.Type == PairSemanticAlias:
			ps.semantic[p.AnchorID] = append(ps.semantic[p.AnchorID], p.OtherID)
			ps.semantic[p.OtherID] = append(ps.semantic[p.OtherID], p.AnchorID)
		}
	}
	return ps
}

// Pairs returns the underlying pair slice.
func (ps *PairSet) Pairs() []Pair { return ps.pairs }

// IsPhoneticMatch reports whether a and b are labeled as phonetic
// variants or transliterations of each other.
func (ps *PairSet) IsPhoneticMatch(a, b string) bool {
	return ps.phonetic[a][b]
}

// PhoneticPartners returns the ids phonetically paired with id.
func (ps *PairSet) PhoneticPartners(id string) []string {
	out := make([]string, 0, len(ps.phonetic[id]))
	for other := range ps.phonetic[id] {
		out = append(out, other)
	}
	return out
}

// SemanticAliases returns the ids labeled semantic_alias of id.
func (ps *PairSet) SemanticAliases(id string) []string {
	return ps.semantic[id]
}

// InPhoneticPair reports whether id appears in at least one phonetic pair.
func (ps *PairSet) InPhoneticPair(id string) bool {
	return ps.phoneticID[id]
}
