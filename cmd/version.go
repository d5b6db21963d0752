package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetforge/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show the version, commit, build time and platform of this binary.

Examples:
  assetforge version               # Detailed output
  assetforge version --short       # Version only
  assetforge version --format json # JSON output`,
	RunE: runVersion,
}

var (
	versionFormat string
	versionShort  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "Show only the version")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	if versionShort {
		fmt.Fprintln(out, info.Short())
		return nil
	}

	switch versionFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text", "":
		fmt.Fprintln(out, info.String())
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use text or json)", versionFormat)
	}
}
