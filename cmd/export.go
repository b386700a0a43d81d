package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/osoleve/namecorpus/internal/miner"
	"github.com/osoleve/namecorpus/internal/model"
	"github.com/osoleve/namecorpus/internal/store"
)

var exportOutDir string

// datasheet is the YAML dataset card written next to the JSONL exports.
type datasheet struct {
	GeneratedAt  string       `yaml:"generated_at"`
	MetricMode   string       `yaml:"metric_mode"`
	GapThreshold float64      `yaml:"gap_threshold"`
	Counts       counts       `yaml:"counts"`
	Rounds       []roundEntry `yaml:"expansion_rounds,omitempty"`
}

type counts struct {
	Names          int `yaml:"names"`
	SyntheticNames int `yaml:"synthetic_names"`
	Pairs          int `yaml:"pairs"`
	Triplets       int `yaml:"triplets"`
	Quadruplets    int `yaml:"quadruplets"`
}

type roundEntry struct {
	RunID          string  `yaml:"run_id"`
	Round          int     `yaml:"round"`
	GapsFound      int     `yaml:"gaps_found"`
	Proposed       int     `yaml:"proposed"`
	Accepted       int     `yaml:"accepted"`
	AcceptanceRate float64 `yaml:"acceptance_rate"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export names, triplets, and quadruplets as JSONL with a YAML datasheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := os.MkdirAll(exportOutDir, 0o755); err != nil {
			return eris.Wrapf(err, "create %s", exportOutDir)
		}

		names, err := st.ListNames(ctx)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(exportOutDir, "names.jsonl"), len(names), func(i int) any { return names[i] }); err != nil {
			return err
		}

		triplets, err := st.ListTriplets(ctx)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(exportOutDir, "triplets.jsonl"), len(triplets), func(i int) any { return triplets[i] }); err != nil {
			return err
		}

		quads, err := st.ListQuadruplets(ctx)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(exportOutDir, "quadruplets.jsonl"), len(quads), func(i int) any { return quads[i] }); err != nil {
			return err
		}

		alignments, err := pairAlignments(ctx, st)
		if err != nil {
			return err
		}
		if err := writeJSONL(filepath.Join(exportOutDir, "alignments.jsonl"), len(alignments), func(i int) any { return alignments[i] }); err != nil {
			return err
		}

		if err := writeDatasheet(ctx, st, filepath.Join(exportOutDir, "datasheet.yaml")); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("dir", exportOutDir),
			zap.Int("names", len(names)),
			zap.Int("triplets", len(triplets)),
			zap.Int("quadruplets", len(quads)),
			zap.Int("alignments", len(alignments)),
		)
		return nil
	},
}

// pairAlignments rebuilds the index over the stored names and traces the
// edit operations for each phonetic pair.
func pairAlignments(ctx context.Context, st store.Store) ([]model.DistanceResult, error) {
	calc, err := calculator()
	if err != nil {
		return nil, err
	}
	ix, _, err := loadIndex(ctx, st, calc)
	if err != nil {
		return nil, err
	}
	pairs, err := loadPairSet(ctx, st)
	if err != nil {
		return nil, err
	}
	m := miner.New(ix, pairs, calc, miner.Config{
		MinDistance: cfg.Miner.MinDistance,
		MaxDistance: cfg.Miner.MaxDistance,
		LooseRadius: cfg.Miner.LooseRadius,
	})
	return m.AlignPairs(), nil
}

func writeJSONL(path string, n int, item func(i int) any) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}

	enc := json.NewEncoder(f)
	for i := 0; i < n; i++ {
		if err := enc.Encode(item(i)); err != nil {
			f.Close()
			return eris.Wrapf(err, "encode line %d of %s", i, path)
		}
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func writeDatasheet(ctx context.Context, st store.Store, path string) error {
	stats, err := st.GetStats(ctx)
	if err != nil {
		return err
	}
	logs, err := st.ListRoundLogs(ctx)
	if err != nil {
		return err
	}

	ds := datasheet{
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		MetricMode:   cfg.Metric.Mode,
		GapThreshold: cfg.Gaps.Threshold,
		Counts: counts{
			Names:          stats.Names,
			SyntheticNames: stats.SyntheticNames,
			Pairs:          stats.Pairs,
			Triplets:       stats.Triplets,
			Quadruplets:    stats.Quadruplets,
		},
	}
	for _, l := range logs {
		ds.Rounds = append(ds.Rounds, roundEntry{
			RunID:          l.RunID,
			Round:          l.Round,
			GapsFound:      l.GapsFound,
			Proposed:       l.Proposed,
			Accepted:       l.Accepted,
			AcceptanceRate: l.AcceptanceRate,
		})
	}

	out, err := yaml.Marshal(ds)
	if err != nil {
		return eris.Wrap(err, "marshal datasheet")
	}
	return eris.Wrapf(os.WriteFile(path, out, 0o644), "write %s", path)
}

func init() {
	exportCmd.Flags().StringVar(&exportOutDir, "out", "export", "output directory")
	rootCmd.AddCommand(exportCmd)
}
