package collab

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/osoleve/namecorpus/pkg/anthropic"
)

const syllabifierSystem = `You split personal names into syllables.

Given a name, respond with its syllables joined by hyphens and nothing else. Keep the original characters; do not romanize or translate.

Examples:

Name: Samira
sa-mi-ra

Name: Kotaro
ko-ta-ro

Name: Aleksandr
a-lek-sandr`

// LLMSyllabifier converts accepted raw names into syllable sequences.
type LLMSyllabifier struct {
	caller *caller
	model  string
}

func (s *LLMSyllabifier) Syllabify(ctx context.Context, raw string) ([]string, error) {
	text, err := s.caller.call(ctx, s.model, "syllabify",
		anthropic.BuildCachedSystemBlocks(syllabifierSystem),
		[]anthropic.Message{{Role: "user", Content: "Name: " + raw}},
		floatPtr(0.0),
	)
	if err != nil {
		return nil, eris.Wrap(err, "collab: syllabify")
	}

	cleaned := cleanLine(strings.SplitN(text, "\n", 2)[0])
	if cleaned == "" {
		return nil, eris.Errorf("collab: empty syllabification for %q", raw)
	}

	var syllables []string
	for _, part := range strings.Split(cleaned, "-") {
		part = strings.TrimSpace(part)
		if part != "" {
			syllables = append(syllables, part)
		}
	}
	if len(syllables) == 0 {
		return nil, eris.Errorf("collab: no syllables parsed for %q", raw)
	}
	return syllables, nil
}
