package expansion

import (
	"context"

	"github.com/osoleve/namecorpus/internal/model"
)

// Check names one of the three validation gates every candidate must pass.
type Check string

const (
	CheckNamePlausibility Check = "name_plausibility"
	CheckBetweenness      Check = "phonological_betweenness"
	CheckPhonotacticValid Check = "phonotactic_validity"
)

// Checks lists the gates in the order they are run. A candidate failing
// any one is rejected without running the rest.
var Checks = []Check{CheckNamePlausibility, CheckBetweenness, CheckPhonotacticValid}

// CandidateContext carries the gap context a judge vote needs.
type CandidateContext struct {
	Left         *model.SyllabifiedName
	Right        *model.SyllabifiedName
	LanguageHint string
	Check        Check
}

// Generator proposes raw name strings for a phonological gap. Fallible;
// the controller applies timeouts and bounded retries.
type Generator interface {
	Propose(ctx context.Context, left, right *model.SyllabifiedName, languageHint string, k int) ([]string, error)
}

// Validator casts a single yes/no vote on one check for one candidate.
// The controller invokes it an odd number of times per check and takes
// the majority; implementations must be maximally deterministic
// (zero-temperature-equivalent).
type Validator interface {
	Judge(ctx context.Context, candidate string, cc CandidateContext) (bool, error)
}

// Syllabifier converts an accepted raw name into its syllable sequence
// for admission into the index.
type Syllabifier interface {
	Syllabify(ctx context.Context, raw string) ([]string, error)
}

// Recorder persists expansion progress. Every completed round is durable
// before the next round starts, so both terminal outcomes (convergence or
// abort) leave the last successful round on disk.
type Recorder interface {
	SaveName(ctx context.Context, name *model.SyllabifiedName) error
	SaveRoundLog(ctx context.Context, log model.RoundLog) error
}
