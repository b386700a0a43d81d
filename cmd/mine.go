package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/miner"
	"github.com/osoleve/namecorpus/internal/model"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine hard negatives and build training triplets and quadruplets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("mine"); err != nil {
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
		ix, entries, err := loadIndex(ctx, st, calc)
		if err != nil {
			return err
		}
		pairs, err := loadPairSet(ctx, st)
		if err != nil {
			return err
		}

		// Anchors are names that appear in at least one phonetic pair;
		// everything else has no positive to contrast against.
		var anchors []*model.SyllabifiedName
		for _, e := range entries {
			if pairs.InPhoneticPair(e.ID) {
				anchors = append(anchors, e)
			}
		}

		m := miner.New(ix, pairs, calc, miner.Config{
			MinDistance: cfg.Miner.MinDistance,
			MaxDistance: cfg.Miner.MaxDistance,
			LooseRadius: cfg.Miner.LooseRadius,
		})
		negatives, err := m.MineAll(anchors)
		if err != nil {
			return eris.Wrap(err, "mine negatives")
		}

		triplets := miner.BuildTriplets(pairs, negatives)
		quads := miner.BuildQuadruplets(pairs)

		if err := st.SaveTriplets(ctx, triplets); err != nil {
			return eris.Wrap(err, "save triplets")
		}
		if err := st.SaveQuadruplets(ctx, quads); err != nil {
			return eris.Wrap(err, "save quadruplets")
		}

		zap.L().Info("mine complete",
			zap.Int("anchors", len(anchors)),
			zap.Int("triplets", len(triplets)),
			zap.Int("quadruplets", len(quads)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}
