package collab

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/osoleve/namecorpus/internal/expansion"
	"github.com/osoleve/namecorpus/pkg/anthropic"
)

const validatorSystem = `You judge proposed personal names with a single YES or NO.

You will be given a candidate name as a hyphen-joined syllable sequence, the two names it is meant to fall between, and one question about it. Answer the question and nothing else: reply with exactly YES or NO on a single line.`

// checkQuestions phrases each validation gate as a yes/no question.
var checkQuestions = map[expansion.Check]string{
	expansion.CheckNamePlausibility: "Could this plausibly be a personal name somewhere in the world?",
	expansion.CheckBetweenness:      "Does this name fall phonologically between the two reference names?",
	expansion.CheckPhonotacticValid: "Is every syllable of this name phonotactically well formed?",
}

// LLMValidator casts yes/no votes on candidate checks. Votes run at
// temperature zero so repeated votes on the same candidate disagree only
// where the model itself is uncertain.
type LLMValidator struct {
	caller *caller
	model  string
}

func (v *LLMValidator) Judge(ctx context.Context, candidate string, cc expansion.CandidateContext) (bool, error) {
	question, ok := checkQuestions[cc.Check]
	if !ok {
		return false, eris.Errorf("collab: unknown check %q", cc.Check)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\n", candidate)
	fmt.Fprintf(&b, "Between: %s and %s\n", cc.Left.Form(), cc.Right.Form())
	if cc.LanguageHint != "" {
		fmt.Fprintf(&b, "Language context: names written in %s script\n", cc.LanguageHint)
	}
	fmt.Fprintf(&b, "Question: %s", question)

	text, err := v.caller.call(ctx, v.model, "validate",
		anthropic.BuildCachedSystemBlocks(validatorSystem),
		[]anthropic.Message{{Role: "user", Content: b.String()}},
		floatPtr(0.0),
	)
	if err != nil {
		return false, eris.Wrap(err, "collab: judge")
	}

	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	default:
		return false, eris.Errorf("collab: unparseable verdict %q", strings.TrimSpace(text))
	}
}
