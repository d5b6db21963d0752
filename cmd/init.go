package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/scaffolding"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a starter project",
	Long: `Create the source tree (html, pug, styles, scripts, images, icons,
fonts and root resources) with sample files, and write .assetforge.yml
holding the default configuration.

Existing source files are kept; an existing .assetforge.yml is only
replaced with --force.

Examples:
  assetforge init                 # Scaffold the current directory
  assetforge init my-site         # Scaffold ./my-site
  assetforge init --config-only   # Only write .assetforge.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initForce      bool
	initName       string
	initConfigOnly bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (default is the directory name)")
	initCmd.Flags().BoolVar(&initConfigOnly, "config-only", false, "Only write the configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	res, err := scaffolding.NewProjectGenerator(root, initialConfig()).Generate(scaffolding.GenerateOptions{
		Name:        initName,
		Force:       initForce,
		SkipSources: initConfigOnly,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range res.Written {
		fmt.Fprintf(out, "  created %s\n", f)
	}
	for _, f := range res.Skipped {
		fmt.Fprintf(out, "  kept    %s\n", f)
	}
	fmt.Fprintln(out, "Run 'assetforge start' to build and serve the project.")
	return nil
}

// initialConfig is the default configuration moved to the --src and
// --dest directories.
func initialConfig() *config.Config {
	cfg := config.Default()
	if src := viper.GetString("source_dir"); src != "" {
		cfg.SourceDir = src
	}
	if dest := viper.GetString("build_dir"); dest != "" {
		cfg.BuildDir = dest
	}
	cfg.Paths = config.DefaultPaths(cfg.SourceDir, cfg.BuildDir)
	return cfg
}
