package collab

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/osoleve/namecorpus/internal/model"
	"github.com/osoleve/namecorpus/pkg/anthropic"
)

const generatorSystem = `You propose plausible personal names that fall phonologically between two given names.

A name falls between two others when its syllable sequence could be reached by a small number of syllable edits from either side. Proposed names must sound like real names a person could carry, not arbitrary syllable soup.

Examples:

Between: sa-ra and sa-mi-ra
Proposals:
sa-ri-a
sa-ma-ra
sa-ra-mi

Between: ka-ta and ko-ta-ro
Proposals:
ko-ta
ka-ta-ro
ko-ta-ra

Respond with one proposal per line, syllables joined by hyphens, and nothing else.`

// LLMGenerator proposes gap-filling candidate names.
type LLMGenerator struct {
	caller *caller
	model  string
}

// Propose asks for k candidates falling between left and right. The
// returned slice is deduplicated and holds at most k entries; fewer is
// not an error, the controller treats each candidate independently.
func (g *LLMGenerator) Propose(ctx context.Context, left, right *model.SyllabifiedName, languageHint string, k int) ([]string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Between: %s and %s\n", left.Form(), right.Form())
	if languageHint != "" {
		fmt.Fprintf(&b, "Language context: names written in %s script\n", languageHint)
	}
	fmt.Fprintf(&b, "Propose %d names.", k)

	text, err := g.caller.call(ctx, g.model, "generate",
		anthropic.BuildCachedSystemBlocks(generatorSystem),
		[]anthropic.Message{{Role: "user", Content: b.String()}},
		floatPtr(1.0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "collab: propose")
	}

	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		candidate := cleanLine(line)
		if candidate == "" {
			continue
		}
		key := strings.ToLower(candidate)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, candidate)
		if len(out) == k {
			break
		}
	}
	return out, nil
}
