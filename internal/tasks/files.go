package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// writeOutput writes data to dest, creating parent directories. A failed
// write forgets dest, since whatever is left on disk is not current.
func writeOutput(env *pipeline.Env, task, dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		env.Cache.Invalidate(dest)
		return errors.NewIOError("MKDIR", "cannot create output directory", err).WithTask(task).WithLocation(dest, 0, 0)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		env.Cache.Invalidate(dest)
		return errors.NewIOError("WRITE", "cannot write output", err).WithTask(task).WithLocation(dest, 0, 0)
	}
	env.Metrics.FileWritten(task)
	env.Logger.Debug(context.Background(), "wrote", "task", task, "file", dest, "bytes", len(data))
	return nil
}

// fresh consults the content cache and records the outcome.
func fresh(env *pipeline.Env, dest string, key uint64) bool {
	if env.Cache == nil {
		return false
	}
	if env.Cache.Fresh(dest, key) {
		env.Metrics.CacheHit()
		return true
	}
	env.Metrics.CacheMiss()
	return false
}

// copyMatches mirrors every file matched by pc.Src under pc.Dest.
func copyMatches(ctx context.Context, env *pipeline.Env, task string, pc config.PathConfig) error {
	files, err := glob.Expand(pc.Src)
	if err != nil {
		return errors.NewConfigError("GLOB", err.Error())
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return errors.NewIOError("READ", "cannot read source", err).WithTask(task).WithLocation(f.Path, 0, 0)
		}
		dest := glob.DestPath(pc.Dest, f)
		key := cache.NewHasher().String(f.Path).Bytes(data).Sum()
		if fresh(env, dest, key) {
			continue
		}
		if err := writeOutput(env, task, dest, data); err != nil {
			return err
		}
		env.Cache.Store(dest, key)
	}
	return nil
}

// urlPath maps a file under the build directory to the path it is served at.
func urlPath(buildDir, file string) string {
	rel, err := filepath.Rel(buildDir, file)
	if err != nil {
		return "/" + filepath.ToSlash(filepath.Base(file))
	}
	return "/" + filepath.ToSlash(rel)
}

func absPath(p string) (string, error) {
	a, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return a, nil
}
