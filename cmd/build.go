package cmd

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Production build",
	Long: `Switch to production mode, clean the build directory and build every
asset category: minified styles and scripts without source maps and
compressed images.

Examples:
  assetforge build                # Production build
  assetforge build --min-html     # Same as build-min-all
  assetforge build --dest dist    # Build into dist/`,
	RunE: runBuild,
}

var buildMinAllCmd = &cobra.Command{
	Use:   "build-min-all",
	Short: "Production build with minified HTML copies",
	Long: `Like build, and additionally writes a minified copy of every page
next to it (index.html and index.min.html).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuildMode(cmd, true)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the build directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		return a.run(a.set.Clean())
	},
}

var buildMinHTML bool

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(buildMinAllCmd)
	rootCmd.AddCommand(cleanCmd)

	buildCmd.Flags().BoolVar(&buildMinHTML, "min-html", false, "Also write minified HTML copies")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	return runBuildMode(cmd, buildMinHTML)
}

func runBuildMode(cmd *cobra.Command, minHTML bool) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	engine := a.cfg.Flags.TemplateEngine
	if minHTML {
		return a.run(a.set.BuildMinAll(engine))
	}
	return a.run(a.set.Build(engine))
}
