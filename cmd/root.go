package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	verbose    bool
)

// errDegraded marks a run that produced output but with a degraded
// template match. Execute maps it to exit code 2 so scripts can tell
// "usable with warnings" from a hard failure.
var errDegraded = errors.New("generation completed degraded")

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "flashdeck.json", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "flashdeck",
	Short: "Flashdeck: collect project data and render review decks",
	Long: `Flashdeck fetches project portfolio data into date-named JSON
snapshots and renders them onto a .pptx template, locating placeholders
by geometry so template regeneration does not break the mapping.

Running with no subcommand generates a deck from the latest snapshot.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

// newLogger builds the process logger. Errors here are unrecoverable.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// Execute runs the root command, mapping degraded runs to exit code 2.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDegraded) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
