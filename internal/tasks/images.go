package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/imaging"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// Images copies raster images, compressing them in production.
func (s *Set) Images() pipeline.Task {
	return pipeline.Interceptable(NameImages, "Images", func(ctx context.Context, env *pipeline.Env) error {
		cfg := env.Config
		prod := env.Flags().Production
		opts := imageOptions(env)

		return eachImage(ctx, env, func(f glob.File, data []byte) error {
			dest := glob.DestPath(cfg.Paths.Images.Dest, f)
			key := cache.NewHasher().String(f.Path).Bytes(data).Bool(prod).
				String(optionsKey(opts)).Sum()
			if fresh(env, dest, key) {
				return nil
			}

			out := data
			if prod {
				var err error
				out, err = s.Images.Compress(f.Path, data, opts)
				if err != nil {
					return errors.NewBuildError("IMAGE_COMPRESS", "cannot compress image", err).
						WithTask(NameImages).WithLocation(f.Path, 0, 0)
				}
			}
			if err := writeOutput(env, NameImages, dest, out); err != nil {
				return err
			}
			env.Cache.Store(dest, key)
			return nil
		})
	})
}

// WebP writes a WebP rendition next to every image. Sources that already
// are WebP are left to the images task.
func (s *Set) WebP() pipeline.Task {
	return pipeline.Interceptable(NameWebP, "WebP", func(ctx context.Context, env *pipeline.Env) error {
		cfg := env.Config
		quality := cfg.Images.WebPQuality

		return eachImage(ctx, env, func(f glob.File, data []byte) error {
			if strings.EqualFold(filepath.Ext(f.Path), ".webp") {
				return nil
			}
			dest := glob.WithExt(glob.DestPath(cfg.Paths.Images.Dest, f), ".webp")
			key := cache.NewHasher().String(f.Path).Bytes(data).String("webp").
				String(optionsKey(imaging.Options{WebPQuality: quality})).Sum()
			if fresh(env, dest, key) {
				return nil
			}

			out, err := s.Images.WebP(data, quality)
			if err != nil {
				return errors.NewBuildError("WEBP", "cannot convert image", err).
					WithTask(NameWebP).WithLocation(f.Path, 0, 0)
			}
			if err := writeOutput(env, NameWebP, dest, out); err != nil {
				return err
			}
			env.Cache.Store(dest, key)
			return nil
		})
	})
}

// eachImage runs fn for every source image on a bounded number of
// goroutines and returns the first error.
func eachImage(ctx context.Context, env *pipeline.Env, fn func(f glob.File, data []byte) error) error {
	files, err := glob.Expand(env.Config.Paths.Images.Src)
	if err != nil {
		return errors.NewConfigError("GLOB", err.Error())
	}

	limit := env.Config.Images.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, f := range files {
		f := f // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return errors.NewIOError("READ", "cannot read source", err).WithLocation(f.Path, 0, 0)
			}
			return fn(f, data)
		})
	}
	return g.Wait()
}

func imageOptions(env *pipeline.Env) imaging.Options {
	c := env.Config.Images
	return imaging.Options{
		JPEGQuality:    c.JPEGQuality,
		Progressive:    c.Progressive,
		PNGCompression: c.PNGCompression,
		WebPQuality:    c.WebPQuality,
	}
}

func optionsKey(o imaging.Options) string {
	return fmt.Sprintf("%+v", o)
}
