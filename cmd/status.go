package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus contents and expansion history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("names:           %d (%d synthetic)\n", stats.Names, stats.SyntheticNames)
		fmt.Printf("judged pairs:    %d\n", stats.Pairs)
		fmt.Printf("candidate pairs: %d\n", stats.CandidatePairs)
		fmt.Printf("triplets:        %d\n", stats.Triplets)
		fmt.Printf("quadruplets:     %d\n", stats.Quadruplets)
		fmt.Printf("rounds:          %d\n", stats.Rounds)

		logs, err := st.ListRoundLogs(ctx)
		if err != nil {
			return err
		}
		if len(logs) > 0 {
			fmt.Println("\nexpansion history:")
			for _, l := range logs {
				fmt.Printf("  %s round %d: %d gaps, %d proposed, %d accepted (rate %.2f)\n",
					l.RunID, l.Round, l.GapsFound, l.Proposed, l.Accepted, l.AcceptanceRate)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
