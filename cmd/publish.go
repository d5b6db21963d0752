package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build and upload the build directory to object storage",
	Long: `Run a production build, then mirror the build directory into an
S3-compatible bucket. Objects whose content is unchanged are skipped.

Credentials are read from publish.access_key and publish.secret_key, usually
via ASSETFORGE_PUBLISH_ACCESS_KEY and ASSETFORGE_PUBLISH_SECRET_KEY (a .env
file works too).

Examples:
  assetforge publish --bucket site --endpoint s3.example.com
  assetforge publish --skip-build --prefix v2/`,
	RunE: runPublish,
}

var (
	publishSkipBuild   bool
	publishConcurrency int
)

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().BoolVar(&publishSkipBuild, "skip-build", false, "Upload the existing build directory")
	publishCmd.Flags().IntVar(&publishConcurrency, "concurrency", 4, "Parallel uploads")
	publishCmd.Flags().String("endpoint", "", "S3 endpoint (host[:port])")
	publishCmd.Flags().String("bucket", "", "Bucket name")
	publishCmd.Flags().String("prefix", "", "Key prefix inside the bucket")

	_ = viper.BindPFlag("publish.endpoint", publishCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("publish.bucket", publishCmd.Flags().Lookup("bucket"))
	_ = viper.BindPFlag("publish.prefix", publishCmd.Flags().Lookup("prefix"))
}

func runPublish(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	store, err := publish.NewS3Store(a.cfg.Publish)
	if err != nil {
		return errors.NewEnhancedError("Publish target is not configured", err,
			errors.ConfigurationError(err.Error(), viper.ConfigFileUsed()))
	}

	var result publish.Result
	upload := pipeline.Func("upload", func(ctx context.Context, env *pipeline.Env) error {
		p := &publish.Publisher{
			Store:       store,
			Prefix:      a.cfg.Publish.Prefix,
			Concurrency: publishConcurrency,
			Logger:      env.Logger,
		}
		res, err := p.Publish(ctx, a.cfg.BuildDir)
		result = res
		return err
	})

	t := upload
	if !publishSkipBuild {
		t = pipeline.Series("publish", a.set.Build(a.cfg.Flags.TemplateEngine), upload)
	}
	if err := a.run(t); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d files (%d unchanged) to %s/%s\n",
		result.Uploaded, result.Skipped, a.cfg.Publish.Bucket, a.cfg.Publish.Prefix)
	return nil
}
