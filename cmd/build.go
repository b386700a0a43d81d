package main

import (
	"compress/gzip"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/extract"
)

var (
	buildInputPath string
	buildDatasets  []string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Extract entities from an OpenSanctions FtM dump and generate candidate pairs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("build"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		f, err := os.Open(buildInputPath)
		if err != nil {
			return eris.Wrapf(err, "open %s", buildInputPath)
		}
		defer f.Close()

		var r io.Reader = f
		if strings.HasSuffix(buildInputPath, ".gz") {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return eris.Wrap(err, "open gzip")
			}
			defer gz.Close()
			r = gz
		}

		exCfg := extract.DefaultConfig()
		exCfg.SchemaFilter = cfg.Extract.Schema
		exCfg.MinNameLength = cfg.Extract.MinLength
		datasets := buildDatasets
		if len(datasets) == 0 {
			datasets = cfg.Extract.Datasets
		}
		if len(datasets) > 0 {
			exCfg.SanctionsDatasets = make(map[string]bool, len(datasets))
			for _, d := range datasets {
				exCfg.SanctionsDatasets[d] = true
			}
		}

		pairCfg := extract.DefaultPairConfig()
		pairCfg.PerEntityCap = cfg.Extract.PerEntityCap
		pairCfg.Seed = cfg.Extract.Seed

		var entities, pairsTotal int
		var streamErr error
		err = extract.StreamEntities(ctx, r, exCfg, func(e extract.EntityRecord) bool {
			pairs := extract.GeneratePairs(e, pairCfg)
			if len(pairs) == 0 {
				return true
			}
			if err := st.SaveCandidatePairs(ctx, pairs); err != nil {
				streamErr = err
				return false
			}
			entities++
			pairsTotal += len(pairs)
			return true
		})
		if streamErr != nil {
			return eris.Wrap(streamErr, "save candidate pairs")
		}
		if err != nil {
			return eris.Wrap(err, "stream entities")
		}

		zap.L().Info("build complete",
			zap.Int("entities", entities),
			zap.Int("candidate_pairs", pairsTotal),
			zap.String("input", buildInputPath),
		)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildInputPath, "input", "", "path to FtM JSONL dump, optionally gzipped (required)")
	buildCmd.Flags().StringSliceVar(&buildDatasets, "datasets", nil, "restrict to entities in these sanctions datasets")
	_ = buildCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(buildCmd)
}
