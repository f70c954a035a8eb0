package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelier-reports/flashdeck/internal/collector"
	"github.com/atelier-reports/flashdeck/internal/config"
	"github.com/atelier-reports/flashdeck/internal/deck"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

func init() {
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the latest snapshot onto the template",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

// runGenerate is LOAD_TEMPLATE -> VERIFY -> GENERATE -> SAVE. A failed
// template load is fatal; a degraded verification only downgrades the
// exit status, never the output.
func runGenerate(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	snapPath, err := collector.LatestSnapshot(cfg.SnapshotDir)
	if err != nil {
		return err
	}
	snap, err := collector.LoadSnapshot(snapPath)
	if err != nil {
		return err
	}
	logger.Info("using snapshot", zap.String("path", snapPath),
		zap.Int("projects", len(snap.Projects)))

	mapping, err := deck.LoadMapping(cfg.MappingPath)
	if err != nil {
		return err
	}
	pm, err := deck.LoadPositionMap(cfg.PositionMap)
	if err != nil {
		return err
	}
	pkg, err := pptx.Open(cfg.TemplatePath)
	if err != nil {
		return err
	}

	result, err := deck.Generate(pkg, snap, mapping, pm, deck.Options{Logger: logger})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := pkg.Save(cfg.OutputPath); err != nil {
		return err
	}

	fmt.Printf("Deck written to %s (%d slides, %d projects)\n",
		cfg.OutputPath, result.Slides, result.Projects)
	fmt.Printf("Template match: %s, placeholder coverage %.0f%%\n",
		result.Report.Status, result.Coverage*100)
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, u := range result.Unfilled {
		fmt.Printf("  unfilled: %s / %s (%s)\n", u.Project, u.Field, u.Reason)
	}

	if result.Degraded {
		return fmt.Errorf("%w: %s", errDegraded, result.Report.Summary())
	}
	return nil
}
