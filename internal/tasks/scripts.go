package tasks

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Scripts bundles every top-level script into a single file with an
// external source map. Without source globs the entry module alone is
// bundled.
func (s *Set) Scripts() pipeline.Task {
	return pipeline.Interceptable(NameScripts, "JS", func(ctx context.Context, env *pipeline.Env) error {
		cfg := env.Config

		entries, err := scriptEntries(cfg.Paths.Scripts)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			env.Logger.Warn(ctx, nil, "no scripts found, skipping bundle", "src", cfg.Paths.Scripts.Src, "entry", cfg.Paths.Scripts.Entry)
			return nil
		}

		opts, err := scriptOptions(cfg, env.Flags(), entries)
		if err != nil {
			return err
		}

		result := api.Build(opts)
		if len(result.Errors) > 0 {
			return esbuildError("JS_BUNDLE", NameScripts, entries[0], result.Errors)
		}
		for _, w := range result.Warnings {
			env.Logger.Warn(ctx, nil, w.Text, "task", NameScripts)
		}

		for _, out := range result.OutputFiles {
			if err := writeOutput(env, NameScripts, out.Path, out.Contents); err != nil {
				return err
			}
		}
		return nil
	})
}

// scriptEntries lists the modules to bundle, in glob order.
func scriptEntries(pc config.PathConfig) ([]string, error) {
	if len(pc.Src) == 0 {
		if pc.Entry == "" {
			return nil, nil
		}
		if _, err := os.Stat(pc.Entry); stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return []string{pc.Entry}, nil
	}

	files, err := glob.Expand(pc.Src)
	if err != nil {
		return nil, errors.NewConfigError("GLOB", err.Error())
	}
	entries := make([]string, len(files))
	for i, f := range files {
		entries[i] = f.Path
	}
	return entries, nil
}

// entryModule imports each entry in order, so that a single bundle runs
// them all.
func entryModule(wd string, entries []string) (string, error) {
	var b strings.Builder
	for _, e := range entries {
		a, err := absPath(e)
		if err != nil {
			return "", err
		}
		rel, err := filepath.Rel(wd, a)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", e, err)
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, "../") {
			rel = "./" + rel
		}
		fmt.Fprintf(&b, "import %q;\n", rel)
	}
	return b.String(), nil
}

// scriptOptions derives the esbuild options from the configuration and the
// current mode flags.
func scriptOptions(cfg *config.Config, flags config.Flags, entries []string) (api.BuildOptions, error) {
	wd, err := os.Getwd()
	if err != nil {
		return api.BuildOptions{}, errors.NewIOError("GETWD", "cannot resolve working directory", err)
	}
	outfile, err := absPath(filepath.Join(cfg.Paths.Scripts.Dest, cfg.Scripts.OutputFile))
	if err != nil {
		return api.BuildOptions{}, err
	}

	target, ok := targets[strings.ToLower(cfg.Scripts.Target)]
	if !ok {
		return api.BuildOptions{}, errors.NewConfigError("SCRIPT_TARGET", "unknown script target "+cfg.Scripts.Target)
	}

	mode := "development"
	if flags.Production {
		mode = "production"
	}

	opts := api.BuildOptions{
		Bundle:            true,
		Outfile:           outfile,
		AbsWorkingDir:     wd,
		Write:             false,
		Sourcemap:         api.SourceMapLinked,
		Target:            target,
		Platform:          api.PlatformBrowser,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  flags.Production,
		MinifyIdentifiers: flags.Production,
		MinifySyntax:      flags.Production,
		Define: map[string]string{
			"process.env.NODE_ENV": `"` + mode + `"`,
		},
	}

	if len(entries) == 1 {
		opts.EntryPoints = entries
	} else {
		contents, err := entryModule(wd, entries)
		if err != nil {
			return api.BuildOptions{}, err
		}
		opts.Stdin = &api.StdinOptions{
			Contents:   contents,
			ResolveDir: wd,
			Sourcefile: "scripts-entry.js",
			Loader:     api.LoaderJS,
		}
	}

	if flags.Framework {
		opts.JSX = api.JSXAutomatic
		opts.JSXImportSource = cfg.Scripts.JSXImportSource
		opts.JSXDev = !flags.Production
		opts.Loader = map[string]api.Loader{
			".js":  api.LoaderJSX,
			".jsx": api.LoaderJSX,
			".tsx": api.LoaderTSX,
		}
		opts.Define["__VUE_OPTIONS_API__"] = "true"
		opts.Define["__VUE_PROD_DEVTOOLS__"] = "false"
		opts.Define["__VUE_PROD_HYDRATION_MISMATCH_DETAILS__"] = "false"
	}

	return opts, nil
}
