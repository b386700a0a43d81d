package store

import (
	"context"

	"github.com/osoleve/namecorpus/internal/extract"
	"github.com/osoleve/namecorpus/internal/model"
)

// Stats summarizes corpus contents for status reporting.
type Stats struct {
	Names          int `json:"names"`
	SyntheticNames int `json:"synthetic_names"`
	Pairs          int `json:"pairs"`
	CandidatePairs int `json:"candidate_pairs"`
	Triplets       int `json:"triplets"`
	Quadruplets    int `json:"quadruplets"`
	Rounds         int `json:"rounds"`
}

// Store is the persistence interface for the corpus pipeline.
type Store interface {
	// Corpus entries
	SaveName(ctx context.Context, name *model.SyllabifiedName) error
	ListNames(ctx context.Context) ([]model.SyllabifiedName, error)

	// Judged pairs (produced upstream, consumed read-only)
	SavePairs(ctx context.Context, pairs []model.Pair) error
	ListPairs(ctx context.Context) ([]model.Pair, error)

	// Candidate pairs awaiting the external judge
	SaveCandidatePairs(ctx context.Context, pairs []extract.CandidatePair) error

	// Derived training records
	SaveTriplets(ctx context.Context, triplets []model.Triplet) error
	ListTriplets(ctx context.Context) ([]model.Triplet, error)
	SaveQuadruplets(ctx context.Context, quads []model.Quadruplet) error
	ListQuadruplets(ctx context.Context) ([]model.Quadruplet, error)

	// Expansion progress
	SaveRoundLog(ctx context.Context, log model.RoundLog) error
	ListRoundLogs(ctx context.Context) ([]model.RoundLog, error)

	// Reporting
	GetStats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
