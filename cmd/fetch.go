package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelier-reports/flashdeck/internal/collector"
	"github.com/atelier-reports/flashdeck/internal/config"
	"github.com/atelier-reports/flashdeck/internal/history"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all configured projects into a date-named snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.ValidateFetch(); err != nil {
			return err
		}

		client := collector.NewClient(cfg.BaseURL, cfg.AuthScheme, cfg.Token,
			collector.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}),
			collector.WithPageSize(cfg.PageSize),
			collector.WithLogger(logger),
		)
		col := collector.New(client,
			collector.WithWorkers(cfg.Workers),
			collector.WithCollectorLogger(logger),
		)

		start := time.Now()
		snap, summary, err := col.FetchAll(cmd.Context(), cfg.ProjectIDs)
		if err != nil {
			return err
		}

		path, err := snap.Write(cfg.SnapshotDir)
		if err != nil {
			return err
		}

		recordRun(logger, cfg, snap, summary, path, time.Since(start))

		fmt.Printf("Snapshot written to %s\n", path)
		fmt.Printf("Succeeded: %d, failed: %d\n", len(summary.Succeeded), len(summary.Failed))
		for _, f := range summary.Failed {
			fmt.Printf("  failed %s: %s\n", f.ID, f.Reason)
		}
		if len(summary.Failed) > 0 {
			return errDegraded
		}
		return nil
	},
}

// recordRun appends the run to the sqlite ledger. Ledger trouble is
// logged, not fatal: the snapshot is already on disk.
func recordRun(logger *zap.Logger, cfg *config.Config, snap *collector.Snapshot, summary *collector.Summary, path string, dur time.Duration) {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logger.Warn("history ledger unavailable", zap.Error(err))
		return
	}
	defer func() { _ = store.Close() }()

	notes := ""
	if len(summary.Failed) > 0 {
		notes = fmt.Sprintf("%d entities failed", len(summary.Failed))
	}
	err = store.Record(history.Run{
		ID:           uuid.NewString(),
		Date:         snap.FetchedAt.Format("2006-01-02"),
		FetchedAt:    snap.FetchedAt,
		Succeeded:    len(summary.Succeeded),
		Failed:       len(summary.Failed),
		Duration:     dur,
		SnapshotPath: path,
		Notes:        notes,
	})
	if err != nil {
		logger.Warn("history record failed", zap.Error(err))
	}
}
