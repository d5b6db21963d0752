package tasks

import (
	"bytes"
	"context"
	"html/template"
	"maps"
	"slices"

	"github.com/Joker/jade"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/include"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// HTML expands include directives in every page and writes it, plus a
// minified twin when HTML minification is on. Pages whose file and
// partials are unchanged since the last run are skipped.
func (s *Set) HTML() pipeline.Task {
	return pipeline.Interceptable(NameHTML, "HTML", func(ctx context.Context, env *pipeline.Env) error {
		pc := env.Config.Paths.HTML
		return s.renderPages(ctx, env, NameHTML, pc, func(f glob.File) (page, error) {
			r := include.New()
			data, err := r.File(f.Path)
			if err != nil {
				return page{}, err
			}
			return page{data: data, deps: slices.Sorted(maps.Keys(r.Deps))}, nil
		})
	})
}

// Pug compiles every Pug page to HTML.
func (s *Set) Pug() pipeline.Task {
	return pipeline.Interceptable(NamePug, "Pug", func(ctx context.Context, env *pipeline.Env) error {
		pc := env.Config.Paths.Pug
		return s.renderPages(ctx, env, NamePug, pc, func(f glob.File) (page, error) {
			data, err := renderPug(f.Path)
			return page{data: data}, err
		})
	})
}

// page is one rendered document and the files it was built from. Pages
// without deps are rendered on every run.
type page struct {
	data []byte
	deps []string
}

func (s *Set) renderPages(ctx context.Context, env *pipeline.Env, task string, pc config.PathConfig, render func(glob.File) (page, error)) error {
	files, err := glob.Expand(pc.Src)
	if err != nil {
		return errors.NewConfigError("GLOB", err.Error())
	}
	minify := env.Flags().HTMLMinify

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := glob.WithExt(glob.DestPath(pc.Dest, f), ".html")
		minDest := glob.WithExt(dest, pc.MinifiedFileExt)

		if deps, ok := s.pageDeps.Load(f.Path); ok {
			key, err := depsKey(deps.([]string))
			if err == nil && fresh(env, dest, key) && (!minify || fresh(env, minDest, key)) {
				continue
			}
		}

		p, err := render(f)
		if err != nil {
			return err
		}

		var key uint64
		cacheable := len(p.deps) > 0
		if cacheable {
			if key, err = depsKey(p.deps); err != nil {
				cacheable = false
			} else {
				s.pageDeps.Store(f.Path, p.deps)
			}
		}

		if err := writeOutput(env, task, dest, p.data); err != nil {
			return err
		}
		if cacheable {
			env.Cache.Store(dest, key)
		}

		if !minify {
			continue
		}
		small, err := s.Minifier.HTML(p.data)
		if err != nil {
			return errors.NewBuildError("HTML_MINIFY", "cannot minify page", err).WithTask(task).WithLocation(f.Path, 0, 0)
		}
		if err := writeOutput(env, task, minDest, small); err != nil {
			return err
		}
		if cacheable {
			env.Cache.Store(minDest, key)
		}
	}
	return nil
}

// depsKey digests the contents of every file a page was built from.
func depsKey(deps []string) (uint64, error) {
	h := cache.NewHasher()
	for _, d := range deps {
		if err := h.File(d); err != nil {
			return 0, err
		}
	}
	return h.Sum(), nil
}

// renderPug compiles a Pug file into an html/template and executes it with
// no data.
func renderPug(path string) ([]byte, error) {
	src, err := jade.ParseFile(path)
	if err != nil {
		return nil, errors.NewBuildError("PUG_COMPILE", "cannot compile template", err).WithTask(NamePug).WithLocation(path, 0, 0)
	}

	tpl, err := template.New(path).Parse(src)
	if err != nil {
		return nil, errors.NewBuildError("PUG_TEMPLATE", "generated template is invalid", err).WithTask(NamePug).WithLocation(path, 0, 0)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, nil); err != nil {
		return nil, errors.NewBuildError("PUG_RENDER", "cannot render template", err).WithTask(NamePug).WithLocation(path, 0, 0)
	}
	return buf.Bytes(), nil
}
