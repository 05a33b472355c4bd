package cmd

import (
	"fmt"
	"os"

	app "github.com/gnames/dwca-tools/pkg"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", app.Version, app.Build)
		os.Exit(0)
	}
}

// formatFlag checks the value of an output format flag.
func formatFlag(format string) (string, error) {
	switch format {
	case "table", "json":
		return format, nil
	}
	return "", FormatError(format)
}
