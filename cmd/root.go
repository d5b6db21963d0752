// Package cmd provides the command-line interface for assetforge.
//
// Configuration is read, in increasing priority, from .assetforge.yml (or
// the file named by --config / ASSETFORGE_CONFIG_FILE), from .env files,
// from ASSETFORGE_* environment variables (ASSETFORGE_SERVER_PORT,
// ASSETFORGE_FLAGS_TEMPLATE_ENGINE, ...) and from command-line flags.
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetforge/internal/config"
)

const defaultConfigName = ".assetforge"

var (
	cfgFile string
	// configReadErr holds a config file that exists but cannot be read.
	configReadErr error
)

var rootCmd = &cobra.Command{
	Use:   "assetforge",
	Short: "Front-end asset pipeline with a live-reload dev server",
	Long: `assetforge compiles the front-end sources of a static site into a
deployable build directory: HTML pages with partial includes (or Pug
templates), SCSS, bundled scripts, optimised images with WebP copies,
minified SVG, an icon sprite, fonts and passthrough resources.

Quick Start:
  assetforge init                 Scaffold src/ and .assetforge.yml
  assetforge start                Build, serve and live reload
  assetforge build                Production build
  assetforge build-min-all        Production build with minified HTML copies
  assetforge run styles scripts   Run individual tasks

Command Aliases:
  start (s, dev), build (b)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is .assetforge.yml, can also use ASSETFORGE_CONFIG_FILE env var)")
	pf.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	pf.String("src", "", "source directory (default src)")
	pf.String("dest", "", "build directory (default build)")
	pf.Bool("pug", false, "render Pug templates instead of HTML partials")
	pf.Bool("framework", false, "enable JSX/Vue framework support in scripts")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("source_dir", pf.Lookup("src"))
	_ = viper.BindPFlag("build_dir", pf.Lookup("dest"))
	_ = viper.BindPFlag("flags.framework", pf.Lookup("framework"))
}

// initConfig wires the config file, .env files and ASSETFORGE_* variables
// into the global viper instance.
func initConfig() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("ASSETFORGE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(defaultConfigName)
	}

	viper.SetEnvPrefix("ASSETFORGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	configReadErr = nil
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	case stderrors.As(err, &notFound):
		// No config file; defaults apply.
	default:
		configReadErr = err
	}
}
