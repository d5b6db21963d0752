package tasks

import (
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/watcher"
)

// Bindings returns the watch table: which tasks rerun when files under each
// category's watch globs change.
func (s *Set) Bindings(cfg *config.Config) []watcher.Binding {
	p := cfg.Paths
	tpl := cfg.TemplatePaths()
	tplName := NameHTML
	if cfg.Flags.TemplateEngine == config.EnginePug {
		tplName = NamePug
	}

	bindings := []watcher.Binding{
		{Name: tplName, Patterns: tpl.WatchSrc, Tasks: []pipeline.Task{s.Template(cfg.Flags.TemplateEngine)}},
		{Name: NameStyles, Patterns: p.Styles.WatchSrc, Tasks: []pipeline.Task{s.Styles()}},
		{Name: NameScripts, Patterns: p.Scripts.WatchSrc, Tasks: []pipeline.Task{s.Scripts()}},
	}
	if cfg.Flags.Framework {
		bindings = append(bindings, watcher.Binding{
			Name: "framework", Patterns: p.Framework.WatchSrc, Tasks: []pipeline.Task{s.Scripts()},
		})
	}
	bindings = append(bindings,
		watcher.Binding{Name: NameImages, Patterns: p.Images.WatchSrc, Tasks: []pipeline.Task{s.Images(), s.WebP()}},
		watcher.Binding{Name: NameSVG, Patterns: p.SVG.WatchSrc, Tasks: []pipeline.Task{s.SVG()}},
		watcher.Binding{Name: NameSprite, Patterns: p.Sprite.WatchSrc, Tasks: []pipeline.Task{s.Sprite()}},
		watcher.Binding{Name: NameFonts, Patterns: p.Fonts.WatchSrc, Tasks: []pipeline.Task{s.Fonts()}},
		watcher.Binding{Name: NameResources, Patterns: p.Resources.WatchSrc, Tasks: []pipeline.Task{s.Resources()}},
	)

	// Categories without watch globs fall back to their sources.
	for i := range bindings {
		if len(bindings[i].Patterns) == 0 {
			bindings[i].Patterns = sourcesFor(cfg, bindings[i].Name)
		}
	}
	return bindings
}

func sourcesFor(cfg *config.Config, name string) []string {
	p := cfg.Paths
	switch name {
	case NameHTML:
		return p.HTML.Src
	case NamePug:
		return p.Pug.Src
	case NameStyles:
		return p.Styles.Src
	case NameScripts:
		return p.Scripts.Src
	case NameImages:
		return p.Images.Src
	case NameSVG:
		return p.SVG.Src
	case NameSprite:
		return p.Sprite.Src
	case NameFonts:
		return p.Fonts.Src
	case NameResources:
		return p.Resources.Src
	}
	return nil
}
