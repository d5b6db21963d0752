// Package tasks implements one task per asset category and composes them
// into the start, build and build-min-all entry points.
package tasks

import (
	"sync"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/imaging"
	"github.com/conneroisu/assetforge/internal/minify"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// Task names.
const (
	NameClean     = "clean"
	NameFonts     = "fonts"
	NameHTML      = "html"
	NamePug       = "pug"
	NameStyles    = "styles"
	NameScripts   = "scripts"
	NameResources = "resources"
	NameSprite    = "sprite"
	NameImages    = "images"
	NameWebP      = "webp"
	NameSVG       = "svg"
)

// Set holds the backends shared by the tasks.
type Set struct {
	Minifier *minify.Minifier
	Images   imaging.Encoder
	Sass     StyleCompiler

	// pageDeps maps each HTML page to the files its last render read.
	pageDeps sync.Map
}

// NewSet returns a set wired to tdewolff minify, libvips and the sass
// executable named by cfg.
func NewSet(cfg *config.Config) *Set {
	return &Set{
		Minifier: minify.New(),
		Images:   imaging.Vips{},
		Sass:     &SassCLI{Binary: cfg.Styles.SassBinary},
	}
}

// Template returns the page task for the configured engine.
func (s *Set) Template(engine string) pipeline.Task {
	if engine == config.EnginePug {
		return s.Pug()
	}
	return s.HTML()
}

// assets is the shared tail of every entry point.
func (s *Set) assets(engine string) []pipeline.Task {
	return []pipeline.Task{
		s.Clean(),
		s.Fonts(),
		s.Template(engine),
		s.Styles(),
		s.Scripts(),
		s.Resources(),
		s.Sprite(),
		s.Images(),
		s.WebP(),
		s.SVG(),
	}
}

// Start builds everything in development mode, then runs serve. Failures
// of the first build are reported instead of aborting, like every rebuild
// that follows.
func (s *Set) Start(engine string, serve pipeline.Task) *pipeline.SeriesTask {
	tasks := append([]pipeline.Task{pipeline.WatchMode()}, s.assets(engine)...)
	if serve != nil {
		tasks = append(tasks, serve)
	}
	return pipeline.Series("start", tasks...)
}

// Build builds everything in production mode.
func (s *Set) Build(engine string) *pipeline.SeriesTask {
	return pipeline.Series("build", append([]pipeline.Task{pipeline.ToProduction()}, s.assets(engine)...)...)
}

// BuildMinAll is Build with HTML minification switched on.
func (s *Set) BuildMinAll(engine string) *pipeline.SeriesTask {
	return pipeline.Series("buildMinAll",
		append([]pipeline.Task{pipeline.EnableHTMLMinify(), pipeline.ToProduction()}, s.assets(engine)...)...)
}

// All returns every individually runnable task.
func (s *Set) All() []pipeline.Task {
	return []pipeline.Task{
		s.Clean(),
		s.Fonts(),
		s.HTML(),
		s.Pug(),
		s.Styles(),
		s.Scripts(),
		s.Resources(),
		s.Sprite(),
		s.Images(),
		s.WebP(),
		s.SVG(),
		pipeline.ToProduction(),
		pipeline.EnableHTMLMinify(),
	}
}

// Lookup finds a runnable task by name.
func (s *Set) Lookup(name string) (pipeline.Task, error) {
	return pipeline.Lookup(name, s.All()...)
}
