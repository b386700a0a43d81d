package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osoleve/namecorpus/internal/extract"
	"github.com/osoleve/namecorpus/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestMigrateIdempotent(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSaveNameRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	name := &model.SyllabifiedName{
		ID:        "n1",
		RawText:   "Mohammed",
		ScriptTag: "Latin",
		Syllables: []string{"mo", "ham", "med"},
		Source:    model.SourceOpenSanctions,
		Provenance: model.Provenance{
			EntityID:  "ofac-1",
			Datasets:  []string{"us_ofac_sdn"},
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		Flags: []model.AnomalyFlag{model.AnomalyNoNucleus},
	}
	require.NoError(t, st.SaveName(ctx, name))

	got, err := st.ListNames(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, *name, got[0])
}

func TestSaveNameUpsertsFlags(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	name := &model.SyllabifiedName{
		ID:        "n1",
		RawText:   "Samira",
		ScriptTag: "Latin",
		Syllables: []string{"sa", "mi", "ra"},
		Source:    model.SourceSynthetic,
	}
	require.NoError(t, st.SaveName(ctx, name))

	got, err := st.ListNames(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Flags)

	name.Flag(model.AnomalyNoNucleus)
	require.NoError(t, st.SaveName(ctx, name))

	got, err = st.ListNames(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []model.AnomalyFlag{model.AnomalyNoNucleus}, got[0].Flags)
	assert.Equal(t, "Samira", got[0].RawText, "non-flag columns keep their first write")
}

func TestListNamesOrderedByID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, st.SaveName(ctx, &model.SyllabifiedName{
			ID: id, RawText: id, ScriptTag: "Latin", Syllables: []string{id}, Source: model.SourceOpenSanctions,
		}))
	}
	got, err := st.ListNames(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestSavePairsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	pairs := []model.Pair{
		{ID: "p1", AnchorID: "a", OtherID: "b", Type: model.PairPhoneticVariant, Source: "judge", JudgeConfidence: 0.9, SimilarityScore: 0.8},
		{ID: "p2", AnchorID: "a", OtherID: "c", Type: model.PairSemanticAlias},
	}
	require.NoError(t, st.SavePairs(ctx, pairs))
	// replacing is idempotent
	require.NoError(t, st.SavePairs(ctx, pairs))

	got, err := st.ListPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, pairs, got)
}

func TestSaveCandidatePairsIgnoresDuplicates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	cp := extract.CandidatePair{
		PairID:         "abcdef0123456789",
		EntityID:       "e1",
		NameA:          "Anna",
		ScriptA:        "Latin",
		PropertyA:      "name",
		NameB:          "Анна",
		ScriptB:        "Cyrillic",
		PropertyB:      "alias",
		Category:       extract.CategoryCrossScript,
		SourceDatasets: []string{"us_ofac_sdn"},
	}
	require.NoError(t, st.SaveCandidatePairs(ctx, []extract.CandidatePair{cp}))
	require.NoError(t, st.SaveCandidatePairs(ctx, []extract.CandidatePair{cp}))

	stats, err := st.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CandidatePairs)
}

func TestTripletsAndQuadrupletsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	triplets := []model.Triplet{
		{ID: "t1", AnchorID: "a", PositiveID: "b", NegativeID: "c", NegativeSource: model.NegativeMetricNeighbor},
		{ID: "t2", AnchorID: "a", PositiveID: "b", NegativeID: "d", NegativeSource: model.NegativeSemanticAlias},
	}
	require.NoError(t, st.SaveTriplets(ctx, triplets))

	gotT, err := st.ListTriplets(ctx)
	require.NoError(t, err)
	assert.Equal(t, triplets, gotT)

	quads := []model.Quadruplet{{ID: "q1", A1: "a", A2: "b", B1: "c", B2: "d"}}
	require.NoError(t, st.SaveQuadruplets(ctx, quads))

	gotQ, err := st.ListQuadruplets(ctx)
	require.NoError(t, err)
	assert.Equal(t, quads, gotQ)
}

func TestRoundLogsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	logs := []model.RoundLog{
		{RunID: "run-1", Round: 1, GapsFound: 5, Proposed: 15, Accepted: 8, AcceptanceRate: 8.0 / 15.0},
		{RunID: "run-1", Round: 2, GapsFound: 2, Proposed: 6, Accepted: 1, AcceptanceRate: 1.0 / 6.0},
	}
	for _, l := range logs {
		require.NoError(t, st.SaveRoundLog(ctx, l))
	}
	// rewriting a round replaces it rather than duplicating
	require.NoError(t, st.SaveRoundLog(ctx, logs[1]))

	got, err := st.ListRoundLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, logs, got)
}

func TestGetStats(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveName(ctx, &model.SyllabifiedName{
		ID: "n1", RawText: "x", ScriptTag: "Latin", Syllables: []string{"x"}, Source: model.SourceOpenSanctions,
	}))
	require.NoError(t, st.SaveName(ctx, &model.SyllabifiedName{
		ID: "n2", RawText: "y", ScriptTag: "Latin", Syllables: []string{"y"}, Source: model.SourceSynthetic,
	}))
	require.NoError(t, st.SavePairs(ctx, []model.Pair{
		{ID: "p1", AnchorID: "n1", OtherID: "n2", Type: model.PairPhoneticVariant},
	}))
	require.NoError(t, st.SaveRoundLog(ctx, model.RoundLog{RunID: "r", Round: 1}))

	stats, err := st.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Names)
	assert.Equal(t, 1, stats.SyntheticNames)
	assert.Equal(t, 1, stats.Pairs)
	assert.Equal(t, 0, stats.Triplets)
	assert.Equal(t, 1, stats.Rounds)
}
