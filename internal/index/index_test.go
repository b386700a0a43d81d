package index

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
)

func entry(id string, syllables ...string) *model.SyllabifiedName {
	return &model.SyllabifiedName{ID: id, Syllables: syllables}
}

func flatIndex(t *testing.T, entries ...*model.SyllabifiedName) *MetricIndex {
	t.Helper()
	ix := New(DefaultConfig(metric.ModeFlat))
	for _, e := range entries {
		require.NoError(t, ix.Insert(e))
	}
	return ix
}

func TestInsertThenRadiusZero(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka", "ta"), entry("b", "zo", "ru"))

	hits, err := ix.QueryRadius([]string{"ka", "ta"}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Entry.ID)
	assert.Zero(t, hits[0].Distance)
}

func TestInsertDuplicateIDLeavesIndexUnchanged(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka", "ta"))

	err := ix.Insert(entry("a", "zo", "ru"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicateID))

	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, []string{"ka", "ta"}, ix.Get("a").Syllables)
}

func TestInsertInvalidEntries(t *testing.T) {
	ix := New(DefaultConfig(metric.ModeFlat))

	for _, bad := range []*model.SyllabifiedName{
		nil,
		entry(""),
		entry("a"),
		entry("a", "ka", ""),
	} {
		err := ix.Insert(bad)
		require.Error(t, err, "%+v", bad)
		assert.True(t, eris.Is(err, ErrInvalidEntry))
	}
	assert.Zero(t, ix.Len())
}

func TestSortedOrder(t *testing.T) {
	ix := flatIndex(t,
		entry("b", "zo", "ru"),
		entry("c", "ka", "ta"),
		entry("a", "ka", "ta"), // same form as c, id breaks the tie
	)

	var ids []string
	for _, e := range ix.Sorted() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestQueryRadiusNegative(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka"))
	_, err := ix.QueryRadius([]string{"ka"}, -1)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidQuery))
}

func TestQueryKNNNonPositiveK(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka"))
	_, err := ix.QueryKNN([]string{"ka"}, 0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidQuery))
}

func TestQueryRadiusOrderingAndTies(t *testing.T) {
	ix := flatIndex(t,
		entry("far", "zo", "ru", "to", "pa"),
		entry("b2", "ka", "to"), // distance 1 from ka-ta
		entry("a1", "ka", "ta"), // distance 0
		entry("b1", "ka", "tu"), // distance 1, form earlier than ka-to? no: ka-to < ka-tu
	)

	hits, err := ix.QueryRadius([]string{"ka", "ta"}, 1.5)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a1", hits[0].Entry.ID)
	// distance ties break on form: ka-to before ka-tu
	assert.Equal(t, "b2", hits[1].Entry.ID)
	assert.Equal(t, "b1", hits[2].Entry.ID)
}

func TestQueryRadiusWeightedAllRejectedReturnsNil(t *testing.T) {
	ix := New(DefaultConfig(metric.ModeWeighted))
	require.NoError(t, ix.Insert(entry("a", "ki")))

	// ki lies inside the widened flat envelope for radius 0.5 but its
	// weighted distance from ka is 0.75, so the re-filter drops every
	// candidate. Both modes report the empty result identically.
	hits, err := ix.QueryRadius([]string{"ka"}, 0.5)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestQueryKNNFewerThanK(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka"), entry("b", "zo"))
	hits, err := ix.QueryKNN([]string{"ka"}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestQueryKNNIdempotent(t *testing.T) {
	ix := flatIndex(t,
		entry("a", "ka", "ta"),
		entry("b", "ka", "to"),
		entry("c", "zo", "ru"),
		entry("d", "ka", "ta", "ro"),
	)

	first, err := ix.QueryKNN([]string{"ka", "ta"}, 3)
	require.NoError(t, err)
	second, err := ix.QueryKNN([]string{"ka", "ta"}, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// randomCorpus builds n deterministic pseudo-random entries.
func randomCorpus(n int) []*model.SyllabifiedName {
	syllables := []string{"ka", "ki", "ko", "ta", "to", "sa", "mi", "ra", "zo", "ru", "mo", "ha"}
	rng := rand.New(rand.NewPCG(7, 0))
	out := make([]*model.SyllabifiedName, n)
	for i := range out {
		length := 1 + rng.IntN(4)
		seq := make([]string, length)
		for j := range seq {
			seq[j] = syllables[rng.IntN(len(syllables))]
		}
		out[i] = entry(fmt.Sprintf("n%03d", i), seq...)
	}
	return out
}

// bruteRadius recomputes a radius query by scanning every entry.
func bruteRadius(calc metric.Calculator, entries []*model.SyllabifiedName, seq []string, r float64) []Result {
	var hits []Result
	for _, e := range entries {
		if d := calc.Distance(seq, e.Syllables); d <= r {
			hits = append(hits, Result{Entry: e, Distance: d})
		}
	}
	sortResults(hits)
	return hits
}

func TestQueryRadiusMatchesBruteForce(t *testing.T) {
	corpus := randomCorpus(80)
	queries := [][]string{
		{"ka", "ta"},
		{"zo"},
		{"sa", "mi", "ra", "to"},
		{"mo", "ha", "mi"},
	}

	for _, mode := range []metric.Mode{metric.ModeFlat, metric.ModeWeighted} {
		calc := metric.Calculator{Mode: mode}
		ix := New(DefaultConfig(mode))
		for _, e := range corpus {
			require.NoError(t, ix.Insert(e))
		}

		for _, q := range queries {
			for _, r := range []float64{0, 0.5, 1, 2, 3.5} {
				got, err := ix.QueryRadius(q, r)
				require.NoError(t, err)
				want := bruteRadius(calc, corpus, q, r)
				assert.Equal(t, want, got, "mode %s query %v radius %v", mode, q, r)
			}
		}
	}
}

func TestQueryKNNMatchesBruteForce(t *testing.T) {
	corpus := randomCorpus(60)
	queries := [][]string{
		{"ka", "ta"},
		{"ru", "zo", "ka"},
		{"mi"},
	}

	for _, mode := range []metric.Mode{metric.ModeFlat, metric.ModeWeighted} {
		calc := metric.Calculator{Mode: mode}
		ix := New(DefaultConfig(mode))
		for _, e := range corpus {
			require.NoError(t, ix.Insert(e))
		}

		for _, q := range queries {
			for _, k := range []int{1, 3, 7} {
				got, err := ix.QueryKNN(q, k)
				require.NoError(t, err)

				all := bruteRadius(calc, corpus, q, 1e9)
				want := all
				if len(want) > k {
					want = want[:k]
				}
				assert.Equal(t, want, got, "mode %s query %v k %d", mode, q, k)
			}
		}
	}
}

func TestRebuildPreservesResults(t *testing.T) {
	corpus := randomCorpus(50)
	ix := New(DefaultConfig(metric.ModeFlat))
	for _, e := range corpus {
		require.NoError(t, ix.Insert(e))
	}

	before, err := ix.QueryRadius([]string{"ka", "ta"}, 2)
	require.NoError(t, err)

	ix.Rebuild()

	after, err := ix.QueryRadius([]string{"ka", "ta"}, 2)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, len(corpus), ix.Len())
}

func TestNeedsRebuildOnDegenerateInserts(t *testing.T) {
	ix := New(Config{Calculator: metric.Calculator{Mode: metric.ModeFlat}, MaxDepthFactor: 1.5})

	// Strictly growing sequences degrade incremental insertion toward a list.
	seq := []string{}
	for i := 0; i < 64; i++ {
		seq = append(seq, "ka")
		e := entry(fmt.Sprintf("n%03d", i), seq...)
		require.NoError(t, ix.Insert(e))
	}
	assert.True(t, ix.NeedsRebuild())

	ix.Rebuild()
	assert.False(t, ix.NeedsRebuild())
}

func TestSortedSnapshotIsolation(t *testing.T) {
	ix := flatIndex(t, entry("a", "ka"), entry("b", "zo"))
	snap := ix.Sorted()
	require.NoError(t, ix.Insert(entry("c", "mi")))
	assert.Len(t, snap, 2)
	assert.Equal(t, 3, ix.Len())
}

func TestSortResultsDeterminism(t *testing.T) {
	rs := []Result{
		{Entry: entry("b", "ka", "to"), Distance: 1},
		{Entry: entry("a", "ka", "to"), Distance: 1},
		{Entry: entry("z", "ka", "ta"), Distance: 0},
	}
	sortResults(rs)
	assert.Equal(t, "z", rs[0].Entry.ID)
	assert.Equal(t, "a", rs[1].Entry.ID)
	assert.Equal(t, "b", rs[2].Entry.ID)

	// stable under shuffling
	sort.Slice(rs, func(i, j int) bool { return rs[i].Entry.ID > rs[j].Entry.ID })
	sortResults(rs)
	assert.Equal(t, "z", rs[0].Entry.ID)
}
