package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelier-reports/flashdeck/internal/config"
	"github.com/atelier-reports/flashdeck/internal/deck"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

var verifySlide int

func init() {
	verifyCmd.Flags().IntVar(&verifySlide, "slide", 0, "Slide index to verify")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [template]",
	Short: "Check the template against the stored position map",
	Long: `Verify classifies every expected placeholder as matched, drifted or
missing, and lists live shapes with no stored role. Exits non-zero
unless every placeholder matched, so it can gate scripted generation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := templateArg(args)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		pm, err := deck.LoadPositionMap(cfg.PositionMap)
		if err != nil {
			return err
		}
		pkg, err := pptx.Open(path)
		if err != nil {
			return err
		}
		shapes, err := deck.AnalyzeSlide(pkg, verifySlide)
		if err != nil {
			return err
		}

		report := deck.Verify(shapes, pm, deck.DefaultTolerance)
		fmt.Println(report.Summary())
		for _, s := range report.New {
			if s.Text != "" {
				fmt.Printf("  new shape %s at (%.2f, %.2f): %q\n", s.Name, s.X, s.Y, s.Text)
			}
		}

		return report.Mismatch()
	},
}
