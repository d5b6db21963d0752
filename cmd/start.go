package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetforge/internal/server"
)

var startCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"s", "dev"},
	Short:   "Build in development mode, serve and live reload",
	Long: `Clean the build directory, build every asset category in development
mode, then serve the build directory and rebuild on change. Failing tasks
are reported in the terminal and in the browser without stopping the
watcher.

Examples:
  assetforge start                  # Serve on localhost:3000
  assetforge start --port 8080      # Serve on another port
  assetforge start --pug --no-open  # Pug templates, no browser`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().IntP("port", "p", 3000, "Port to serve on")
	startCmd.Flags().String("host", "localhost", "Host to bind to")
	startCmd.Flags().Bool("no-open", false, "Don't open browser automatically")

	_ = viper.BindPFlag("server.port", startCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", startCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.no-open", startCmd.Flags().Lookup("no-open"))
}

func runStart(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	serve := server.Task(a.set.Bindings)
	return a.run(a.set.Start(a.cfg.Flags.TemplateEngine, serve))
}
