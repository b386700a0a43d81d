// Package expansion drives the iterative corpus-densification loop: detect
// phonological gaps, request candidates from the generator, gate them
// through majority-vote validation, and insert survivors into the metric
// index until the corpus converges.
package expansion

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/osoleve/namecorpus/internal/extract"
	"github.com/osoleve/namecorpus/internal/gaps"
	"github.com/osoleve/namecorpus/internal/index"
	"github.com/osoleve/namecorpus/internal/metric"
	"github.com/osoleve/namecorpus/internal/model"
	"github.com/osoleve/namecorpus/internal/resilience"
)

// State is the controller's position in the expansion state machine.
type State string

const (
	StateIdle               State = "idle"
	StateScanning           State = "scanning"
	StateAwaitingGeneration State = "awaiting_generation"
	StateAwaitingValidation State = "awaiting_validation"
	StateInserting          State = "inserting"
	StateConverged          State = "converged"
	StateAborted            State = "aborted"
)

// Config tunes the expansion loop.
type Config struct {
	// CandidatesPerGap is the k passed to the generator per gap.
	CandidatesPerGap int
	// VoteCount is the number of judge votes per check per candidate.
	// Must be odd; the majority decides.
	VoteCount int
	// AcceptanceFloor terminates the loop when a round's accepted/proposed
	// ratio drops below it, even if gaps remain.
	AcceptanceFloor float64
	// Concurrency bounds in-flight gap tasks, mirroring the judge
	// throughput ceiling.
	Concurrency int
	// CollaboratorTimeout applies to each external request.
	CollaboratorTimeout time.Duration
	// Retry bounds per-request retries within a gap.
	Retry resilience.RetryConfig
	// MaxRoundFailures is the number of consecutive fully-failed rounds
	// tolerated before the controller aborts.
	MaxRoundFailures int
	// MaxRounds is a hard ceiling on rounds; 0 means no ceiling beyond
	// the acceptance-rate rule.
	MaxRounds int
}

// DefaultConfig returns the standard expansion parameters.
func DefaultConfig() Config {
	return Config{
		CandidatesPerGap:    3,
		VoteCount:           3,
		AcceptanceFloor:     0.20,
		Concurrency:         8,
		CollaboratorTimeout: 60 * time.Second,
		Retry:               resilience.DefaultRetryConfig(),
		MaxRoundFailures:    3,
	}
}

// Summary reports what an expansion run did.
type Summary struct {
	RunID      string
	Rounds     []model.RoundLog
	Inserted   int
	FinalState State
}

// Controller owns the metric index for the duration of a densification
// run. Single-use: once terminal (Converged or aborted), a fresh
// controller must be constructed for another pass.
type Controller struct {
	cfg      Config
	index    *index.MetricIndex
	detector *gaps.Detector
	gen      Generator
	val      Validator
	syl      Syllabifier
	rec      Recorder

	mu    sync.Mutex
	state State
	runID string
}

// New creates an idle controller. rec may be nil when persistence is
// handled elsewhere (tests).
func New(cfg Config, ix *index.MetricIndex, det *gaps.Detector, gen Generator, val Validator, syl Syllabifier, rec Recorder) *Controller {
	def := DefaultConfig()
	if cfg.CandidatesPerGap <= 0 {
		cfg.CandidatesPerGap = def.CandidatesPerGap
	}
	if cfg.VoteCount <= 0 {
		cfg.VoteCount = def.VoteCount
	}
	if cfg.VoteCount%2 == 0 {
		cfg.VoteCount++
	}
	if cfg.AcceptanceFloor <= 0 {
		cfg.AcceptanceFloor = def.AcceptanceFloor
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.CollaboratorTimeout <= 0 {
		cfg.CollaboratorTimeout = def.CollaboratorTimeout
	}
	if cfg.MaxRoundFailures <= 0 {
		cfg.MaxRoundFailures = def.MaxRoundFailures
	}
	return &Controller{
		cfg:      cfg,
		index:    ix,
		detector: det,
		gen:      gen,
		val:      val,
		syl:      syl,
		rec:      rec,
		state:    StateIdle,
		runID:    uuid.New().String(),
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run executes the loop to a terminal state. Returns the summary along
// with resilience.ErrExpansionAborted after repeated round-level
// collaborator failure, or the context error when cancelled between
// rounds; otherwise the summary's FinalState is StateConverged.
func (c *Controller) Run(ctx context.Context) (*Summary, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return nil, eris.Errorf("expansion: controller not reusable (state %s)", state)
	}
	c.state = StateScanning
	c.mu.Unlock()

	log := zap.L().With(zap.String("run_id", c.runID))
	summary := &Summary{RunID: c.runID}
	consecutiveFailures := 0

	for round := 1; ; round++ {
		c.setState(StateScanning)

		// Cooperative cancellation checkpoint: in-flight rounds drain,
		// cancellation only takes effect here.
		if err := ctx.Err(); err != nil {
			log.Info("expansion cancelled between rounds", zap.Int("round", round))
			summary.FinalState = c.State()
			return summary, eris.Wrap(err, "expansion: cancelled")
		}

		gapList := c.detector.Collect()
		if len(gapList) == 0 {
			log.Info("no gaps remain, corpus converged", zap.Int("rounds", round-1))
			c.setState(StateConverged)
			summary.FinalState = StateConverged
			return summary, nil
		}

		outcome := c.runRound(ctx, round, gapList)

		c.setState(StateInserting)
		inserted := c.insertAccepted(ctx, round, outcome.accepted)
		summary.Inserted += inserted

		rl := model.RoundLog{
			RunID:          c.runID,
			Round:          round,
			GapsFound:      len(gapList),
			Proposed:       outcome.proposed,
			Accepted:       len(outcome.accepted),
			AcceptanceRate: acceptanceRate(len(outcome.accepted), outcome.proposed),
		}
		summary.Rounds = append(summary.Rounds, rl)
		if c.rec != nil {
			if err := c.rec.SaveRoundLog(ctx, rl); err != nil {
				log.Warn("failed to persist round log", zap.Int("round", round), zap.Error(err))
			}
		}
		log.Info("round complete",
			zap.Int("round", round),
			zap.Int("gaps", rl.GapsFound),
			zap.Int("proposed", rl.Proposed),
			zap.Int("accepted", rl.Accepted),
			zap.Float64("acceptance_rate", rl.AcceptanceRate),
			zap.Int("failed_gaps", outcome.failedGaps),
		)

		if outcome.failedGaps == len(gapList) {
			consecutiveFailures++
			if consecutiveFailures >= c.cfg.MaxRoundFailures {
				log.Error("collaborators unreachable for consecutive rounds, aborting",
					zap.Int("consecutive_failures", consecutiveFailures))
				c.setState(StateAborted)
				summary.FinalState = StateAborted
				return summary, eris.Wrapf(resilience.ErrExpansionAborted,
					"%d consecutive failed rounds", consecutiveFailures)
			}
			continue
		}
		consecutiveFailures = 0

		if rl.AcceptanceRate < c.cfg.AcceptanceFloor {
			log.Info("acceptance rate below floor, converging",
				zap.Float64("rate", rl.AcceptanceRate),
				zap.Float64("floor", c.cfg.AcceptanceFloor))
			c.setState(StateConverged)
			summary.FinalState = StateConverged
			return summary, nil
		}
		if c.cfg.MaxRounds > 0 && round >= c.cfg.MaxRounds {
			log.Info("round ceiling reached, converging", zap.Int("rounds", round))
			c.setState(StateConverged)
			summary.FinalState = StateConverged
			return summary, nil
		}
	}
}

// acceptedCandidate is a validated, syllabified candidate awaiting insert.
type acceptedCandidate struct {
	raw       string
	syllables []string
	script    string
}

type roundOutcome struct {
	proposed   int
	accepted   []acceptedCandidate
	failedGaps int
}

// runRound fans gap tasks out over the bounded pool. Gap failures are
// isolated: one failing collaborator request never aborts the round.
func (c *Controller) runRound(ctx context.Context, round int, gapList []gaps.Gap) roundOutcome {
	c.setState(StateAwaitingGeneration)

	var mu sync.Mutex
	outcome := roundOutcome{}
	seenRaw := make(map[string]bool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, gap := range gapList {
		g.Go(func() error {
			proposed, accepted, err := c.fillGap(gctx, gap)
			mu.Lock()
			defer mu.Unlock()
			outcome.proposed += proposed
			if err != nil {
				outcome.failedGaps++
				zap.L().Warn("gap skipped for round",
					zap.Int("round", round),
					zap.String("left", gap.Left.ID),
					zap.String("right", gap.Right.ID),
					zap.Error(err),
				)
				return nil
			}
			for _, a := range accepted {
				// Two gaps can surface the same proposal; admit it once.
				key := strings.ToLower(a.raw)
				if seenRaw[key] {
					continue
				}
				seenRaw[key] = true
				outcome.accepted = append(outcome.accepted, a)
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcome
}

// fillGap generates and validates candidates for one gap. Any exhausted
// collaborator failure fails the whole gap for this round.
func (c *Controller) fillGap(ctx context.Context, gap gaps.Gap) (proposed int, accepted []acceptedCandidate, err error) {
	hint := languageHint(gap)

	candidates, err := resilience.Call(ctx, c.cfg.Retry, "generate",
		func(ctx context.Context) ([]string, error) {
			tctx, cancel := context.WithTimeout(ctx, c.cfg.CollaboratorTimeout)
			defer cancel()
			return c.gen.Propose(tctx, gap.Left, gap.Right, hint, c.cfg.CandidatesPerGap)
		})
	if err != nil {
		return 0, nil, err
	}
	proposed = len(candidates)

	c.setState(StateAwaitingValidation)
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ok, verr := c.validate(ctx, raw, gap, hint)
		if verr != nil {
			return proposed, nil, verr
		}
		if !ok {
			continue
		}

		syllables, serr := resilience.Call(ctx, c.cfg.Retry, "syllabify",
			func(ctx context.Context) ([]string, error) {
				tctx, cancel := context.WithTimeout(ctx, c.cfg.CollaboratorTimeout)
				defer cancel()
				return c.syl.Syllabify(tctx, raw)
			})
		if serr != nil {
			return proposed, nil, serr
		}
		accepted = append(accepted, acceptedCandidate{
			raw:       raw,
			syllables: syllables,
			script:    extract.DominantScriptWeighted(raw),
		})
	}
	return proposed, accepted, nil
}

// validate runs the three checks in sequence, each decided by majority
// vote. The first failed check rejects the candidate.
func (c *Controller) validate(ctx context.Context, candidate string, gap gaps.Gap, hint string) (bool, error) {
	for _, check := range Checks {
		cc := CandidateContext{Left: gap.Left, Right: gap.Right, LanguageHint: hint, Check: check}
		yes := 0
		for v := 0; v < c.cfg.VoteCount; v++ {
			vote, err := resilience.Call(ctx, c.cfg.Retry, "judge",
				func(ctx context.Context) (bool, error) {
					tctx, cancel := context.WithTimeout(ctx, c.cfg.CollaboratorTimeout)
					defer cancel()
					return c.val.Judge(tctx, candidate, cc)
				})
			if err != nil {
				return false, err
			}
			if vote {
				yes++
			}
		}
		if yes*2 <= c.cfg.VoteCount {
			return false, nil
		}
	}
	return true, nil
}

// insertAccepted admits validated candidates into the index serially: the
// index write lock is the single-writer section, and going through one
// goroutine keeps insertion order deterministic within a round.
func (c *Controller) insertAccepted(ctx context.Context, round int, accepted []acceptedCandidate) int {
	inserted := 0
	for _, a := range accepted {
		name := &model.SyllabifiedName{
			ID:        uuid.New().String(),
			RawText:   a.raw,
			ScriptTag: a.script,
			Syllables: a.syllables,
			Source:    model.SourceSynthetic,
			Provenance: model.Provenance{
				RunID:        c.runID,
				Round:        round,
				RoundsPassed: "3/3",
				CreatedAt:    time.Now().UTC(),
			},
		}
		for _, s := range a.syllables {
			if !metric.HasVowelNucleus(s) {
				name.Flag(model.AnomalyNoNucleus)
				break
			}
		}
		if err := c.index.Insert(name); err != nil {
			// Structural errors here mean the syllabifier produced a
			// malformed sequence; drop the candidate, keep the round.
			zap.L().Warn("rejected accepted candidate at insert",
				zap.String("raw", a.raw), zap.Error(err))
			continue
		}
		if c.rec != nil {
			if err := c.rec.SaveName(ctx, name); err != nil {
				zap.L().Warn("failed to persist synthetic name",
					zap.String("id", name.ID), zap.Error(err))
			}
		}
		inserted++
	}
	if c.index.NeedsRebuild() {
		c.index.Rebuild()
	}
	return inserted
}

func acceptanceRate(accepted, proposed int) float64 {
	if proposed == 0 {
		return 0
	}
	return float64(accepted) / float64(proposed)
}

// languageHint derives the apparent phonological-family tag from the gap's
// bounding entries. Matching scripts give a confident hint; mismatched
// bounds leave the generator to infer.
func languageHint(gap gaps.Gap) string {
	if gap.Left.ScriptTag == gap.Right.ScriptTag {
		return gap.Left.ScriptTag
	}
	return ""
}
