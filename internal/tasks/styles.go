package tasks

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// StyleCompiler turns one SCSS file into CSS written at out. With
// sourceMap set it also writes out + ".map".
type StyleCompiler interface {
	Compile(ctx context.Context, src, out string, loadPaths []string, sourceMap bool) error
}

// SassCLI runs the Dart Sass executable.
type SassCLI struct {
	Binary string
}

func (c *SassCLI) Compile(ctx context.Context, src, out string, loadPaths []string, sourceMap bool) error {
	binary := c.Binary
	if binary == "" {
		binary = "sass"
	}

	args := make([]string, 0, len(loadPaths)+4)
	for _, p := range loadPaths {
		args = append(args, "--load-path="+p)
	}
	if sourceMap {
		args = append(args, "--source-map", "--embed-sources")
	} else {
		args = append(args, "--no-source-map")
	}
	args = append(args, src, out)

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return errors.NewToolError("SASS_MISSING", binary, err).WithTask(NameStyles)
	}

	parsed := errors.NewErrorParser().ParseError(string(output))
	if len(parsed) == 0 {
		return errors.NewBuildError("SCSS_COMPILE", "compile failed", err).WithTask(NameStyles).WithLocation(src, 0, 0)
	}
	diags := make([]errors.BuildError, 0, len(parsed))
	var report strings.Builder
	for _, p := range parsed {
		if p.File == "" {
			p.File = src
		}
		diags = append(diags, p.ToBuildError(NameStyles))
		report.WriteString(p.FormatError())
	}

	pe := parsed[0]
	return errors.NewBuildError("SCSS_COMPILE", pe.Message, nil).
		WithTask(NameStyles).
		WithLocation(pe.File, pe.Line, pe.Column).
		WithContext("output", strings.TrimSpace(report.String())).
		WithDiagnostics(diags)
}

// Styles compiles every top-level stylesheet, adds vendor prefixes for the
// configured engines and writes name.css. Development builds keep a linked
// source map; production builds are minified.
func (s *Set) Styles() pipeline.Task {
	return pipeline.Interceptable(NameStyles, "SCSS", func(ctx context.Context, env *pipeline.Env) error {
		cfg := env.Config
		pc := cfg.Paths.Styles
		prod := env.Flags().Production

		engines, err := parseEngines(cfg.Styles.Engines)
		if err != nil {
			return errors.NewConfigError("ENGINES", err.Error())
		}

		files, err := glob.Expand(pc.Src)
		if err != nil {
			return errors.NewConfigError("GLOB", err.Error())
		}

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			dest := glob.WithExt(glob.DestPath(pc.Dest, f), ".css")
			if err := s.compileStyle(ctx, env, f, dest, engines, prod); err != nil {
				return err
			}
			env.Notifier().CSSUpdate(urlPath(cfg.BuildDir, dest))
			env.Metrics.Reload("css_update")
		}
		return nil
	})
}

func (s *Set) compileStyle(ctx context.Context, env *pipeline.Env, f glob.File, dest string, engines []api.Engine, prod bool) error {
	tmp, err := os.MkdirTemp("", "assetforge-styles-")
	if err != nil {
		return errors.NewIOError("TEMP", "cannot create temporary directory", err)
	}
	defer os.RemoveAll(tmp)

	compiled := filepath.Join(tmp, filepath.Base(dest))
	loadPaths := append([]string{filepath.Dir(f.Path)}, env.Config.Styles.LoadPaths...)
	if err := s.Sass.Compile(ctx, f.Path, compiled, loadPaths, !prod); err != nil {
		return err
	}

	outfile, err := absPath(dest)
	if err != nil {
		return err
	}

	opts := api.BuildOptions{
		EntryPoints:       []string{compiled},
		Outfile:           outfile,
		AbsWorkingDir:     tmp,
		Write:             false,
		Engines:           engines,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  prod,
		MinifySyntax:      prod,
		MinifyIdentifiers: prod,
	}
	if !prod {
		opts.Sourcemap = api.SourceMapLinked
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return esbuildError("CSS_TRANSFORM", NameStyles, f.Path, result.Errors)
	}

	for _, out := range result.OutputFiles {
		if err := writeOutput(env, NameStyles, out.Path, out.Contents); err != nil {
			return err
		}
	}
	return nil
}

var engineName = regexp.MustCompile(`^([a-z]+)(\d[\d.]*)$`)

// parseEngines turns targets such as "chrome58" or "ios11" into esbuild
// engines.
func parseEngines(targets []string) ([]api.Engine, error) {
	names := map[string]api.EngineName{
		"chrome":  api.EngineChrome,
		"edge":    api.EngineEdge,
		"firefox": api.EngineFirefox,
		"ios":     api.EngineIOS,
		"opera":   api.EngineOpera,
		"safari":  api.EngineSafari,
	}

	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		m := engineName.FindStringSubmatch(strings.ToLower(strings.TrimSpace(t)))
		if m == nil {
			return nil, fmt.Errorf("invalid engine target %q", t)
		}
		name, ok := names[m[1]]
		if !ok {
			return nil, fmt.Errorf("unknown engine %q", m[1])
		}
		engines = append(engines, api.Engine{Name: name, Version: m[2]})
	}
	return engines, nil
}

// esbuildError converts the first esbuild message into an AssetError with
// its location.
func esbuildError(code, task, fallback string, msgs []api.Message) error {
	m := msgs[0]
	err := errors.NewBuildError(code, m.Text, nil).WithTask(task)
	if m.Location != nil {
		return err.WithLocation(m.Location.File, m.Location.Line, m.Location.Column+1).
			WithContext("line", m.Location.LineText)
	}
	if len(msgs) > 1 {
		err = err.WithContext("more", len(msgs)-1)
	}
	return err.WithLocation(fallback, 0, 0)
}
