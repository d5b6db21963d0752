package tasks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/svgsprite"
)

// SVG minifies vector images.
func (s *Set) SVG() pipeline.Task {
	return pipeline.Interceptable(NameSVG, "SVG", func(ctx context.Context, env *pipeline.Env) error {
		pc := env.Config.Paths.SVG
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
				return errors.NewIOError("READ", "cannot read source", err).WithTask(NameSVG).WithLocation(f.Path, 0, 0)
			}
			dest := glob.DestPath(pc.Dest, f)
			key := cache.NewHasher().String(f.Path).Bytes(data).Sum()
			if fresh(env, dest, key) {
				continue
			}

			out, err := s.Minifier.SVG(data)
			if err != nil {
				return errors.NewBuildError("SVG_MINIFY", "cannot minify svg", err).WithTask(NameSVG).WithLocation(f.Path, 0, 0)
			}
			if err := writeOutput(env, NameSVG, dest, out); err != nil {
				return err
			}
			env.Cache.Store(dest, key)
		}
		return nil
	})
}

// Sprite strips paint attributes from every icon and assembles the icons
// into one sprite file.
func (s *Set) Sprite() pipeline.Task {
	return pipeline.Interceptable(NameSprite, "Sprite", func(ctx context.Context, env *pipeline.Env) error {
		cfg := env.Config
		pc := cfg.Paths.Sprite
		files, err := glob.Expand(pc.Src)
		if err != nil {
			return errors.NewConfigError("GLOB", err.Error())
		}
		if len(files) == 0 {
			return nil
		}

		dest := filepath.Join(pc.Dest, pc.SpriteFileName)
		h := cache.NewHasher().String(cfg.Sprite.Mode)
		for _, f := range files {
			if err := h.File(f.Path); err != nil {
				return errors.NewIOError("READ", "cannot read icon", err).WithTask(NameSprite).WithLocation(f.Path, 0, 0)
			}
		}
		key := h.Sum()
		if fresh(env, dest, key) {
			return nil
		}

		icons := make([]svgsprite.Icon, 0, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			if err != nil {
				return errors.NewIOError("READ", "cannot read icon", err).WithTask(NameSprite).WithLocation(f.Path, 0, 0)
			}
			stripped, err := svgsprite.Strip(data, svgsprite.PaintAttrs...)
			if err != nil {
				return errors.NewBuildError("SPRITE_PARSE", "invalid icon", err).WithTask(NameSprite).WithLocation(f.Path, 0, 0)
			}
			small, err := s.Minifier.SVG(stripped)
			if err != nil {
				return errors.NewBuildError("SVG_MINIFY", "cannot minify icon", err).WithTask(NameSprite).WithLocation(f.Path, 0, 0)
			}
			icons = append(icons, svgsprite.Icon{ID: svgsprite.ID(f.Rel), Data: small})
		}

		sprite, err := svgsprite.Build(icons, cfg.Sprite.Mode)
		if err != nil {
			return errors.NewBuildError("SPRITE_BUILD", "cannot assemble sprite", err).WithTask(NameSprite)
		}
		if err := writeOutput(env, NameSprite, dest, sprite); err != nil {
			return err
		}
		env.Cache.Store(dest, key)
		return nil
	})
}
