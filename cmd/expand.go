package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/collab"
	"github.com/osoleve/namecorpus/internal/expansion"
	"github.com/osoleve/namecorpus/internal/gaps"
	"github.com/osoleve/namecorpus/internal/resilience"
	"github.com/osoleve/namecorpus/pkg/anthropic"
)

var expandMaxRounds int

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Densify sparse phonological regions with LLM-proposed names",
	Long:  "Scans the metric index for gaps wider than the configured threshold, asks the generator for candidates in each gap, validates them by majority vote, and inserts survivors. Repeats until no gaps remain or the acceptance rate collapses.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("expand"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		calc, err := calculator()
		if err != nil {
			return err
		}
		ix, _, err := loadIndex(ctx, st, calc)
		if err != nil {
			return err
		}
		pairs, err := loadPairSet(ctx, st)
		if err != nil {
			return err
		}

		detector := gaps.New(ix, pairs, calc, cfg.Gaps.Threshold)

		collabCfg := collab.DefaultConfig()
		collabCfg.GeneratorModel = cfg.Anthropic.GeneratorModel
		collabCfg.ValidatorModel = cfg.Anthropic.ValidatorModel
		collabCfg.RequestsPerSec = cfg.Anthropic.RequestsPerSec
		roles := collab.New(anthropic.NewClient(cfg.Anthropic.Key), collabCfg)

		maxRounds := cfg.Expansion.MaxRounds
		if expandMaxRounds > 0 {
			maxRounds = expandMaxRounds
		}
		ctrl := expansion.New(expansion.Config{
			CandidatesPerGap:    cfg.Expansion.CandidatesPerGap,
			VoteCount:           cfg.Expansion.VoteCount,
			AcceptanceFloor:     cfg.Expansion.AcceptanceFloor,
			Concurrency:         cfg.Expansion.Concurrency,
			CollaboratorTimeout: time.Duration(cfg.Expansion.CollaboratorTimeoutSec) * time.Second,
			Retry: resilience.RetryConfig{
				MaxAttempts:    cfg.Expansion.RetryMaxAttempts,
				InitialBackoff: time.Duration(cfg.Expansion.RetryInitialBackoffMS) * time.Millisecond,
			},
			MaxRoundFailures: cfg.Expansion.MaxRoundFailures,
			MaxRounds:        maxRounds,
		}, ix, detector, roles.Generator, roles.Validator, roles.Syllabifier, st)

		summary, err := ctrl.Run(ctx)
		if summary != nil {
			zap.L().Info("expansion finished",
				zap.String("run_id", summary.RunID),
				zap.Int("rounds", len(summary.Rounds)),
				zap.Int("inserted", summary.Inserted),
				zap.String("final_state", string(summary.FinalState)),
			)
		}
		return err
	},
}

func init() {
	expandCmd.Flags().IntVar(&expandMaxRounds, "max-rounds", 0, "hard ceiling on expansion rounds (0 uses config)")
	rootCmd.AddCommand(expandCmd)
}
