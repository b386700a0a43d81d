package extract

import (
	"sort"
	"unicode"
)

// scriptTable pins the scripts observed in OpenSanctions Person entities to
// the labels the corpus uses. Checked in order; the label granularity is
// deliberately coarser than Unicode's (Han/Bopomofo collapse to CJK).
var scriptTable = []struct {
	label  string
	ranges []*unicode.RangeTable
}{
	{"Latin", []*unicode.RangeTable{unicode.Latin}},
	{"Cyrillic", []*unicode.RangeTable{unicode.Cyrillic}},
	{"Arabic", []*unicode.RangeTable{unicode.Arabic}},
	{"CJK", []*unicode.RangeTable{unicode.Han, unicode.Bopomofo}},
	{"Hangul", []*unicode.RangeTable{unicode.Hangul}},
	{"Devanagari", []*unicode.RangeTable{unicode.Devanagari}},
	{"Hiragana", []*unicode.RangeTable{unicode.Hiragana}},
	{"Katakana", []*unicode.RangeTable{unicode.Katakana}},
	{"Thai", []*unicode.RangeTable{unicode.Thai}},
	{"Georgian", []*unicode.RangeTable{unicode.Georgian}},
	{"Armenian", []*unicode.RangeTable{unicode.Armenian}},
	{"Hebrew", []*unicode.RangeTable{unicode.Hebrew}},
	{"Bengali", []*unicode.RangeTable{unicode.Bengali}},
	{"Gurmukhi", []*unicode.RangeTable{unicode.Gurmukhi}},
	{"Gujarati", []*unicode.RangeTable{unicode.Gujarati}},
	{"Tamil", []*unicode.RangeTable{unicode.Tamil}},
	{"Telugu", []*unicode.RangeTable{unicode.Telugu}},
	{"Kannada", []*unicode.RangeTable{unicode.Kannada}},
	{"Malayalam", []*unicode.RangeTable{unicode.Malayalam}},
	{"Myanmar", []*unicode.RangeTable{unicode.Myanmar}},
	{"Khmer", []*unicode.RangeTable{unicode.Khmer}},
	{"Tibetan", []*unicode.RangeTable{unicode.Tibetan}},
	{"Ethiopic", []*unicode.RangeTable{unicode.Ethiopic}},
	{"Greek", []*unicode.RangeTable{unicode.Greek}},
}

// classifyRune returns the script label for an alphabetic rune, or "".
func classifyRune(r rune) string {
	if !unicode.IsLetter(r) {
		return ""
	}
	for _, entry := range scriptTable {
		for _, rt := range entry.ranges {
			if unicode.Is(rt, r) {
				return entry.label
			}
		}
	}
	return "Other"
}

// DetectScripts returns the sorted set of script labels present in the
// alphabetic characters of text.
func DetectScripts(text string) []string {
	seen := make(map[string]bool)
	for _, r := range text {
		if label := classifyRune(r); label != "" {
			seen[label] = true
		}
	}
	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// DominantScript collapses a script set to one label for classification.
// Latin plus exactly one non-Latin yields the non-Latin (stray Latin
// characters are common in otherwise non-Latin data entry); multiple
// non-Latin scripts pick the alphabetically first for determinism.
func DominantScript(scripts []string) string {
	if len(scripts) == 0 {
		return "Unknown"
	}
	if len(scripts) == 1 {
		return scripts[0]
	}
	var nonLatin []string
	for _, s := range scripts {
		if s != "Latin" {
			nonLatin = append(nonLatin, s)
		}
	}
	if len(nonLatin) == 0 {
		return "Latin"
	}
	sort.Strings(nonLatin)
	return nonLatin[0]
}

// DominantScriptWeighted determines the dominant script by character
// frequency, which handles mixed-script names better than the set-based
// collapse.
func DominantScriptWeighted(text string) string {
	counts := make(map[string]int)
	for _, r := range text {
		if label := classifyRune(r); label != "" {
			counts[label]++
		}
	}
	if len(counts) == 0 {
		return "Unknown"
	}
	best, bestCount := "", -1
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}
