package tasks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// Clean removes the build directory.
func (s *Set) Clean() pipeline.Task {
	return pipeline.Func(NameClean, func(ctx context.Context, env *pipeline.Env) error {
		dir := filepath.Clean(env.Config.BuildDir)
		if dir == "." || dir == string(filepath.Separator) || filepath.IsAbs(dir) {
			return errors.NewConfigError("CLEAN_REFUSED", "refusing to remove "+env.Config.BuildDir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return errors.NewIOError("CLEAN", "cannot remove build directory", err).WithLocation(dir, 0, 0)
		}
		env.Cache.Purge()
		return nil
	})
}

// Fonts copies font files.
func (s *Set) Fonts() pipeline.Task {
	return pipeline.Func(NameFonts, func(ctx context.Context, env *pipeline.Env) error {
		return copyMatches(ctx, env, NameFonts, env.Config.Paths.Fonts)
	})
}

// Resources copies the passthrough tree into the build root.
func (s *Set) Resources() pipeline.Task {
	return pipeline.Func(NameResources, func(ctx context.Context, env *pipeline.Env) error {
		return copyMatches(ctx, env, NameResources, env.Config.Paths.Resources)
	})
}
