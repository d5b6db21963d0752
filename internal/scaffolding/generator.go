// Package scaffolding writes a starter project: a source tree with one
// sample file per asset category and an .assetforge.yml holding the
// default configuration.
package scaffolding

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
)

// ConfigFileName is the configuration file written by Generate.
const ConfigFileName = ".assetforge.yml"

// ProjectGenerator handles project scaffolding.
type ProjectGenerator struct {
	root   string
	config *config.Config
	files  []ProjectFile
}

// GenerateOptions holds options for project generation.
type GenerateOptions struct {
	// Name is used for the page title. Defaults to the root directory name.
	Name string
	// Force overwrites existing files.
	Force bool
	// SkipSources only writes the configuration file.
	SkipSources bool
}

// Result lists the files written and skipped, relative to the root.
type Result struct {
	Written []string
	Skipped []string
}

// NewProjectGenerator creates a generator writing under root with cfg as
// the configuration. A nil cfg uses config.Default.
func NewProjectGenerator(root string, cfg *config.Config) *ProjectGenerator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ProjectGenerator{
		root:   root,
		config: cfg,
		files:  StarterFiles(),
	}
}

// Generate writes the configuration file and the starter sources. Existing
// source files are left alone unless Force is set; an existing
// configuration file is an error unless Force is set.
func (g *ProjectGenerator) Generate(opts GenerateOptions) (Result, error) {
	var res Result

	cfgPath := filepath.Join(g.root, ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil && !opts.Force {
		return res, errors.NewValidationError("CONFIG_EXISTS",
			fmt.Sprintf("%s already exists (use --force to overwrite)", ConfigFileName))
	}

	if err := os.MkdirAll(g.root, 0o755); err != nil {
		return res, errors.NewIOError("MKDIR", "failed to create project directory", err)
	}

	data, err := g.ConfigYAML()
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return res, errors.NewIOError("WRITE", "failed to write "+ConfigFileName, err)
	}
	res.Written = append(res.Written, ConfigFileName)

	if opts.SkipSources {
		return res, nil
	}

	ctx := g.context(opts.Name)
	for _, f := range g.files {
		rel := f.Path
		if !f.Root {
			rel = filepath.Join(g.config.SourceDir, f.Path)
		}
		target := filepath.Join(g.root, rel)

		if _, err := os.Stat(target); err == nil && !opts.Force {
			res.Skipped = append(res.Skipped, filepath.ToSlash(rel))
			continue
		}

		content, err := g.render(f, ctx)
		if err != nil {
			return res, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return res, errors.NewIOError("MKDIR", "failed to create "+filepath.Dir(rel), err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return res, errors.NewIOError("WRITE", "failed to write "+rel, err)
		}
		res.Written = append(res.Written, filepath.ToSlash(rel))
	}

	return res, nil
}

// ConfigYAML renders the generator's configuration.
func (g *ProjectGenerator) ConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# assetforge configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g.config); err != nil {
		return nil, errors.NewConfigError("ENCODE", "failed to encode configuration: "+err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, errors.NewConfigError("ENCODE", "failed to encode configuration: "+err.Error())
	}
	return buf.Bytes(), nil
}

func (g *ProjectGenerator) context(name string) TemplateContext {
	if name == "" {
		if abs, err := filepath.Abs(g.root); err == nil {
			name = filepath.Base(abs)
		}
	}
	title := strings.NewReplacer("-", " ", "_", " ").Replace(name)

	return TemplateContext{
		ProjectName: name,
		Title:       cases.Title(language.English).String(title),
		SourceDir:   g.config.SourceDir,
		BuildDir:    strings.TrimSuffix(g.config.BuildDir, "/"),
	}
}

// render executes a templated file.
func (g *ProjectGenerator) render(f ProjectFile, ctx TemplateContext) ([]byte, error) {
	if !f.Template {
		return []byte(f.Content), nil
	}

	tmpl, err := template.New(f.Path).Parse(f.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", f.Path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", f.Path, err)
	}
	return buf.Bytes(), nil
}
