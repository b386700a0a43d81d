package metric

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sonority levels follow the standard sonority hierarchy, from voiceless
// stops up to low vowels. Only the relative ordering matters: weighted
// substitution costs are normalized by the scale's span.
const (
	sonNone          = 0 // no classifiable segment
	sonStop          = 1
	sonFricative     = 2
	sonNasal         = 3
	sonLiquid        = 4
	sonGlide         = 5
	sonHighVowel     = 6
	sonMidVowel      = 7
	sonLowVowel      = 8
	sonorityScaleMax = sonLowVowel
)

// sonorityOf classifies a single letter. Works on the romanized form the
// syllabifier emits; anything unrecognized gets sonNone.
func sonorityOf(r rune) int {
	switch r {
	case 'a', 'ä', 'å', 'á', 'à', 'â', 'ã':
		return sonLowVowel
	case 'e', 'o', 'é', 'è', 'ê', 'ë', 'ó', 'ò', 'ô', 'ö', 'õ', 'ø':
		return sonMidVowel
	case 'i', 'u', 'í', 'ì', 'î', 'ï', 'ú', 'ù', 'û', 'ü', 'y':
		return sonHighVowel
	case 'w', 'j':
		return sonGlide
	case 'l', 'r':
		return sonLiquid
	case 'm', 'n':
		return sonNasal
	case 'f', 'v', 's', 'z', 'x', 'h':
		return sonFricative
	case 'p', 'b', 't', 'd', 'k', 'g', 'q', 'c':
		return sonStop
	}
	return sonNone
}

// NucleusSonority returns the sonority level of a syllable's nucleus: the
// most sonorous segment in the syllable. Returns sonNone (0) when no
// segment classifies, which callers flag as a no-nucleus anomaly.
func NucleusSonority(syllable string) int {
	peak := sonNone
	for _, r := range strings.ToLower(norm.NFC.String(syllable)) {
		if s := sonorityOf(r); s > peak {
			peak = s
		}
	}
	return peak
}

// HasVowelNucleus reports whether the syllable contains at least one
// vowel-grade segment (sonority at or above the high-vowel level).
func HasVowelNucleus(syllable string) bool {
	return NucleusSonority(syllable) >= sonHighVowel
}
