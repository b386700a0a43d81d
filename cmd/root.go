package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osoleve/namecorpus/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "namecorpus",
	Short: "Cross-script name dataset construction pipeline",
	Long:  "Extracts sanctioned-person names from OpenSanctions dumps, builds a syllable-metric index over them, densifies sparse phonological regions with LLM-proposed names, and mines training triplets.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
