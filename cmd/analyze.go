package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atelier-reports/flashdeck/internal/config"
	"github.com/atelier-reports/flashdeck/internal/deck"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [template]",
	Short: "Print every shape's position, size and text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := templateArg(args)
		if err != nil {
			return err
		}
		pkg, err := pptx.Open(path)
		if err != nil {
			return err
		}
		shapes, err := deck.Analyze(pkg)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d slides, %d shapes\n", path, pkg.SlideCount(), len(shapes))
		slide := -1
		for _, s := range shapes {
			if s.Slide != slide {
				slide = s.Slide
				fmt.Printf("Slide %d:\n", slide)
			}
			text := s.Text
			if text == "" {
				text = "(empty)"
			}
			fmt.Printf("  [%2d] %-28s (%.2f, %.2f) %5.2f x %-5.2f %q\n",
				s.Index, s.Name, s.X, s.Y, s.W, s.H, text)
		}
		return nil
	},
}

// templateArg resolves the template path from the argument or config.
func templateArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.TemplatePath == "" {
		return "", fmt.Errorf("no template argument and none configured")
	}
	return cfg.TemplatePath, nil
}
