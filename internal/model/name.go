package model

import (
	"strings"
	"time"
)

// NameSource identifies where a corpus entry came from.
type NameSource string

const (
	// SourceOpenSanctions marks names extracted from the OpenSanctions dump.
	SourceOpenSanctions NameSource = "opensanctions"
	// SourceSynthetic marks names admitted by the expansion loop.
	SourceSynthetic NameSource = "synthetic"
)

// AnomalyFlag marks a non-fatal irregularity on a corpus entry.
type AnomalyFlag string

const (
	// AnomalyNoNucleus flags a syllable with no detectable vowel nucleus.
	// Flagged, not rejected: some romanizations produce legitimate
	// vowel-free syllables (e.g. syllabic consonants).
	AnomalyNoNucleus AnomalyFlag = "no_vowel_nucleus"
)

// Provenance records how a corpus entry was produced.
type Provenance struct {
	EntityID     string    `json:"entity_id,omitempty"`
	Datasets     []string  `json:"datasets,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	Round        int       `json:"round,omitempty"`
	RoundsPassed string    `json:"rounds_passed,omitempty"` // e.g. "3/3" for synthetic entries
	CreatedAt    time.Time `json:"created_at"`
}

// SyllabifiedName is a single corpus entry: a name broken into an ordered
// syllable sequence. Immutable after creation except for appended anomaly
// flags; the ID is unique and stable for the lifetime of the corpus.
type SyllabifiedName struct {
	ID         string        `json:"id"`
	RawText    string        `json:"raw_text"`
	ScriptTag  string        `json:"script_tag"`
	Syllables  []string      `json:"syllables"`
	Source     NameSource    `json:"source"`
	Provenance Provenance    `json:"provenance"`
	Flags      []AnomalyFlag `json:"flags,omitempty"`
}

// Form returns the canonical hyphen-joined syllabified form, used for
// lexicographic ordering and deterministic tie-breaks.
func (n *SyllabifiedName) Form() string {
	return strings.Join(n.Syllables, "-")
}

// Flag appends an anomaly flag if not already present.
func (n *SyllabifiedName) Flag(f AnomalyFlag) {
	for _, existing := range n.Flags {
		if existing == f {
			return
		}
	}
	n.Flags = append(n.Flags, f)
}

// DistanceResult is a computed distance between two corpus entries.
// Distance is symmetric and non-negative. Alignment, when present, is the
// edit-operation trace that produced the distance.
type DistanceResult struct {
	AID       string   `json:"a_id"`
	BID       string   `json:"b_id"`
	Distance  float64  `json:"distance"`
	Alignment []EditOp `json:"alignment,omitempty"`
}

// EditOp is a single step of a syllable-level alignment.
type EditOp struct {
	Op   string  `json:"op"` // "match", "sub", "ins", "del"
	A    string  `json:"a,omitempty"`
	B    string  `json:"b,omitempty"`
	Cost float64 `json:"cost"`
}
