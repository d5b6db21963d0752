package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/imaging"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/metrics"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/tasks"
)

// app is the state shared by the pipeline commands.
type app struct {
	cfg *config.Config
	env *pipeline.Env
	set *tasks.Set
}

// newApp loads the configuration, applies the command-line overrides and
// prepares the task environment.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cmd, cfg)

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, errors.NewEnhancedError("Invalid log level", err, nil)
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	warnConfig(context.Background(), logger, cfg)

	env := pipeline.NewEnv(cfg, logger)
	env.Metrics = metrics.New()
	env.Cache, err = cache.New(cache.DefaultSize)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg: cfg,
		env: env,
		set: tasks.NewSet(cfg),
	}, nil
}

func loadConfig() (*config.Config, error) {
	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		configPath = defaultConfigName + ".yml"
	}

	if configReadErr != nil {
		return nil, errors.NewEnhancedError("Failed to read configuration",
			configReadErr, errors.ConfigurationError(configReadErr.Error(), configPath))
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewEnhancedError("Failed to load configuration",
			err, errors.ConfigurationError(err.Error(), configPath))
	}
	return cfg, nil
}

// warnConfig logs the validation warnings that do not stop a run.
func warnConfig(ctx context.Context, logger logging.Logger, cfg *config.Config) {
	result := config.ValidateConfigWithDetails(cfg)
	if !result.HasWarnings() {
		return
	}
	for _, w := range result.Warnings {
		logger.Warn(ctx, nil, w.Message, "field", w.Field, "value", w.Value)
	}
}

// applyFlagOverrides applies flags that do not map one-to-one onto a
// configuration key.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if on, err := cmd.Flags().GetBool("pug"); err == nil && on {
		cfg.Flags.TemplateEngine = config.EnginePug
	}
}

// run executes t until it finishes or the process is interrupted.
func (a *app) run(t pipeline.Task) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	imaging.Startup(a.cfg.Images.Concurrency)
	defer imaging.Shutdown()

	err := pipeline.Exec(ctx, a.env, t)
	if err != nil {
		if ctx.Err() != nil && stderrors.Is(err, context.Canceled) {
			return nil
		}
		return a.explain(err)
	}
	return nil
}

// explain attaches suggestions to failures that have a known remedy.
func (a *app) explain(err error) error {
	var assetErr *errors.AssetError
	if !stderrors.As(err, &assetErr) {
		return err
	}

	switch assetErr.Type {
	case errors.ErrorTypeTool:
		tool, _ := assetErr.Context["tool"].(string)
		if tool == "" {
			tool = "sass"
		}
		return errors.NewEnhancedError(fmt.Sprintf("%s is not available", tool), err, errors.MissingToolError(tool))
	case errors.ErrorTypeNetwork:
		if assetErr.Code == "LISTEN" {
			return errors.NewEnhancedError(
				fmt.Sprintf("Failed to start server on port %d", a.cfg.Server.Port),
				err, errors.ServerStartError(err, a.cfg.Server.Port))
		}
	case errors.ErrorTypeConfig:
		return errors.NewEnhancedError("Invalid configuration", err,
			errors.ConfigurationError(err.Error(), viper.ConfigFileUsed()))
	}
	return err
}
