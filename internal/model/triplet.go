package model

// NegativeSource tags where a hard negative was mined from.
type NegativeSource string

const (
	// NegativeMetricNeighbor marks a phonologically close non-variant
	// found by radius query against the metric index.
	NegativeMetricNeighbor NegativeSource = "metric_neighbor"
	// NegativeSemanticAlias marks a semantic alias of the anchor that is
	// also phonologically proximate.
	NegativeSemanticAlias NegativeSource = "semantic_alias"
)

// Triplet is a derived training record referencing corpus entries by id.
// Records never copy name content so later corrections cannot drift.
type Triplet struct {
	ID             string         `json:"id"`
	AnchorID       string         `json:"anchor_id"`
	PositiveID     string         `json:"positive_id"`
	NegativeID     string         `json:"negative_id"`
	NegativeSource NegativeSource `json:"negative_source"`
}

// Quadruplet is a derived training record of two positive pairs used for
// cross-pair contrastive objectives.
type Quadruplet struct {
	ID string `json:"id"`
	A1 string `json:"a1"`
	A2 string `json:"a2"`
	B1 string `json:"b1"`
	B2 string `json:"b2"`
}

// RoundLog is the per-round expansion record reported in the datasheet.
type RoundLog struct {
	RunID          string  `json:"run_id"`
	Round          int     `json:"round"`
	GapsFound      int     `json:"gaps_found"`
	Proposed       int     `json:"proposed"`
	Accepted       int     `json:"accepted"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}
