package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atelier-reports/flashdeck/internal/deck"
	"github.com/atelier-reports/flashdeck/internal/pptx"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the shape list to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

// export-mapping is the only path that ever writes position data;
// verify and generate just read it.
var exportCmd = &cobra.Command{
	Use:   "export-mapping [template]",
	Short: "Dump the template's shape positions as JSON",
	Long: `Dumps every shape position as JSON, the raw material for the
position map. Re-run this after deliberate template changes, prune the
output to the placeholder roles, and save it as the position map file.`,
	Args: cobra.MaximumNArgs(1),
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

		data, err := json.MarshalIndent(shapes, "", "  ")
		if err != nil {
			return fmt.Errorf("encode shape list: %w", err)
		}
		if exportOut == "" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", exportOut, err)
		}
		fmt.Printf("Shape list written to %s\n", exportOut)
		return nil
	},
}
