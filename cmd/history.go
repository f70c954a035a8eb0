package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atelier-reports/flashdeck/internal/config"
	"github.com/atelier-reports/flashdeck/internal/history"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent collector runs from the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		runs, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Printf("%-10s  %-20s  %9s  %6s  %8s  %s\n",
			"DATE", "FETCHED", "SUCCEEDED", "FAILED", "DURATION", "SNAPSHOT")
		for _, r := range runs {
			fmt.Printf("%-10s  %-20s  %9d  %6d  %8s  %s\n",
				r.Date, r.FetchedAt.Format("2006-01-02 15:04:05"),
				r.Succeeded, r.Failed, r.Duration.Round(time.Millisecond), r.SnapshotPath)
			if r.Notes != "" {
				fmt.Printf("            %s\n", r.Notes)
			}
		}
		return nil
	},
}
