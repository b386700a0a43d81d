package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRune(t *testing.T) {
	tests := []struct {
		r    rune
		want string
	}{
		{'a', "Latin"},
		{'Z', "Latin"},
		{'д', "Cyrillic"},
		{'م', "Arabic"},
		{'山', "CJK"},
		{'한', "Hangul"},
		{'ぁ', "Hiragana"},
		{'Ω', "Greek"},
		{'Ꭰ', "Other"}, // Cherokee, not in the table
		{'7', ""},
		{'-', ""},
		{' ', ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyRune(tt.r), "rune %q", tt.r)
	}
}

func TestDetectScripts(t *testing.T) {
	assert.Equal(t, []string{"Latin"}, DetectScripts("Anna-Maria"))
	assert.Equal(t, []string{"Cyrillic", "Latin"}, DetectScripts("Аnna")) // leading Cyrillic А
	assert.Empty(t, DetectScripts("1234 --"))
	assert.Equal(t, []string{"Arabic"}, DetectScripts("محمد"))
}

func TestDominantScript(t *testing.T) {
	assert.Equal(t, "Unknown", DominantScript(nil))
	assert.Equal(t, "Cyrillic", DominantScript([]string{"Cyrillic"}))
	// stray Latin in non-Latin entry defers to the non-Latin script
	assert.Equal(t, "Cyrillic", DominantScript([]string{"Cyrillic", "Latin"}))
	// multiple non-Latin: alphabetically first
	assert.Equal(t, "Arabic", DominantScript([]string{"Latin", "Cyrillic", "Arabic"}))
}

func TestDominantScriptWeighted(t *testing.T) {
	assert.Equal(t, "Cyrillic", DominantScriptWeighted("Владимир V."))
	assert.Equal(t, "Latin", DominantScriptWeighted("Vladimir Путин extra latin text"))
	assert.Equal(t, "Unknown", DominantScriptWeighted("123"))
	// exact tie resolves to the alphabetically first label
	assert.Equal(t, "Cyrillic", DominantScriptWeighted("abвг"))
}

func TestStreamEntitiesFiltersAndCleans(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"e1","schema":"Person","datasets":["us_ofac_sdn"],"properties":{"name":["Mohammed Karim"],"alias":["Muhamad Karim / Mohamed Karim"]}}`,
		`{"id":"e2","schema":"Company","datasets":["us_ofac_sdn"],"properties":{"name":["Acme Ltd"]}}`,
		`not json at all`,
		`{"id":"e3","schema":"Person","datasets":["us_ofac_sdn"],"properties":{"name":["--","1"]}}`,
		`{"id":"e4","schema":"Person","datasets":["wikidata"],"properties":{"name":["Jane Doe"]}}`,
	}, "\n")

	cfg := DefaultConfig()
	cfg.SanctionsDatasets = map[string]bool{"us_ofac_sdn": true}

	var got []EntityRecord
	err := StreamEntities(context.Background(), strings.NewReader(input), cfg, func(e EntityRecord) bool {
		got = append(got, e)
		return true
	})
	require.NoError(t, err)

	// only e1 survives: e2 wrong schema, e3 has no valid names,
	// e4 is outside the dataset filter, and the bad line is skipped
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, "e1", e.EntityID)
	assert.Equal(t, []string{"us_ofac_sdn"}, e.Datasets)

	texts := make([]string, len(e.Names))
	for i, n := range e.Names {
		texts[i] = n.Text
	}
	assert.Equal(t, []string{"Mohammed Karim", "Muhamad Karim", "Mohamed Karim"}, texts)
	assert.Equal(t, "name", e.Names[0].SourceProperty)
	assert.Equal(t, "alias", e.Names[1].SourceProperty)
}

func TestStreamEntitiesEarlyStop(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"e1","schema":"Person","datasets":["a"],"properties":{"name":["First Name"]}}`,
		`{"id":"e2","schema":"Person","datasets":["a"],"properties":{"name":["Second Name"]}}`,
	}, "\n")

	var seen int
	err := StreamEntities(context.Background(), strings.NewReader(input), DefaultConfig(), func(EntityRecord) bool {
		seen++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestCleanNamesNormalizationAndDedupe(t *testing.T) {
	cfg := DefaultConfig()
	props := map[string][]string{
		// decomposed e + combining acute; NFC must fold it onto the
		// precomposed alias below
		"name":  []string{"Amélie Durand", "  Padded Name  "},
		"alias": []string{"Amélie Durand", "x"},
	}
	records := cleanNames(props, cfg)

	require.Len(t, records, 2)
	assert.Equal(t, "Amélie Durand", records[0].Text)
	assert.Equal(t, "name", records[0].SourceProperty, "first occurrence wins")
	assert.Equal(t, "Padded Name", records[1].Text)
}

func TestMatchDatasetsNilAdmitsAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, matchDatasets([]string{"b", "a"}, nil))
	assert.Empty(t, matchDatasets([]string{"b"}, map[string]bool{"a": true}))
}

func entityFixture() EntityRecord {
	return EntityRecord{
		EntityID: "ofac-1234",
		Datasets: []string{"us_ofac_sdn"},
		Names: []NameRecord{
			{Text: "Anna Petrova", Scripts: []string{"Latin"}, SourceProperty: "name"},
			{Text: "Ana Petrova", Scripts: []string{"Latin"}, SourceProperty: "alias"},
			{Text: "Анна Петрова", Scripts: []string{"Cyrillic"}, SourceProperty: "alias"},
		},
	}
}

func TestGeneratePairsClassification(t *testing.T) {
	pairs := GeneratePairs(entityFixture(), DefaultPairConfig())
	require.Len(t, pairs, 3)

	byCat := map[PairCategory]int{}
	for _, p := range pairs {
		byCat[p.Category]++
		assert.Len(t, p.PairID, 16)
		assert.Equal(t, "ofac-1234", p.EntityID)
		if p.Category == CategoryCrossScript {
			assert.Equal(t, "Latin", p.ScriptA, "cross-script pairs put Latin first")
			assert.Equal(t, "Cyrillic", p.ScriptB)
		}
	}
	assert.Equal(t, 2, byCat[CategoryCrossScript])
	assert.Equal(t, 1, byCat[CategoryLatinLatin])
}

func TestGeneratePairsCanonicalOrderSameScript(t *testing.T) {
	pairs := GeneratePairs(entityFixture(), PairConfig{
		Include: map[PairCategory]bool{CategoryLatinLatin: true},
	})
	require.Len(t, pairs, 1)
	assert.Equal(t, "Ana Petrova", pairs[0].NameA, "ascending text order within a script")
	assert.Equal(t, "Anna Petrova", pairs[0].NameB)
}

func TestGeneratePairsCapAndPriority(t *testing.T) {
	cfg := DefaultPairConfig()
	cfg.PerEntityCap = 2
	pairs := GeneratePairs(entityFixture(), cfg)

	// the cross-script tier fills the whole budget before latin_latin
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Equal(t, CategoryCrossScript, p.Category)
	}
}

func TestGeneratePairsDeterministic(t *testing.T) {
	cfg := DefaultPairConfig()
	cfg.PerEntityCap = 2
	first := GeneratePairs(entityFixture(), cfg)
	second := GeneratePairs(entityFixture(), cfg)
	assert.Equal(t, first, second)
}

func TestGeneratePairsTooFewNames(t *testing.T) {
	e := entityFixture()
	e.Names = e.Names[:1]
	assert.Nil(t, GeneratePairs(e, DefaultPairConfig()))
}

func TestPairIDStable(t *testing.T) {
	a := pairID("e1", "Anna", "Ana")
	assert.Equal(t, a, pairID("e1", "Anna", "Ana"))
	assert.NotEqual(t, a, pairID("e1", "Ana", "Anna"))
	assert.NotEqual(t, a, pairID("e2", "Anna", "Ana"))
}
