package main

import (
	"bufio"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/model"
)

var (
	importNamesPath string
	importPairsPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import syllabified names and judged pairs from JSONL",
	Long:  "Loads the upstream judge and syllabifier output into the store. Names are one SyllabifiedName JSON object per line; pairs are one labeled pair per line.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if importNamesPath == "" && importPairsPath == "" {
			return eris.New("at least one of --names or --pairs is required")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var namesLoaded, pairsLoaded int

		if importNamesPath != "" {
			err := eachLine(importNamesPath, func(line []byte) error {
				var n model.SyllabifiedName
				if err := json.Unmarshal(line, &n); err != nil {
					return eris.Wrap(err, "parse name")
				}
				if n.ID == "" || len(n.Syllables) == 0 {
					return eris.Errorf("name missing id or syllables: %s", line)
				}
				if err := st.SaveName(ctx, &n); err != nil {
					return err
				}
				namesLoaded++
				return nil
			})
			if err != nil {
				return eris.Wrapf(err, "import names from %s", importNamesPath)
			}
		}

		if importPairsPath != "" {
			var pairs []model.Pair
			err := eachLine(importPairsPath, func(line []byte) error {
				var p model.Pair
				if err := json.Unmarshal(line, &p); err != nil {
					return eris.Wrap(err, "parse pair")
				}
				if p.ID == "" || p.AnchorID == "" || p.OtherID == "" {
					return eris.Errorf("pair missing ids: %s", line)
				}
				pairs = append(pairs, p)
				return nil
			})
			if err != nil {
				return eris.Wrapf(err, "import pairs from %s", importPairsPath)
			}
			if err := st.SavePairs(ctx, pairs); err != nil {
				return eris.Wrap(err, "save pairs")
			}
			pairsLoaded = len(pairs)
		}

		zap.L().Info("import complete",
			zap.Int("names", namesLoaded),
			zap.Int("pairs", pairsLoaded),
		)
		return nil
	},
}

// eachLine invokes fn for every non-empty line of a JSONL file.
func eachLine(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return eris.Wrap(scanner.Err(), "scan")
}

func init() {
	importCmd.Flags().StringVar(&importNamesPath, "names", "", "path to syllabified names JSONL")
	importCmd.Flags().StringVar(&importPairsPath, "pairs", "", "path to judged pairs JSONL")
	rootCmd.AddCommand(importCmd)
}
