// Package config provides configuration management for assetforge using
// Viper for loading from files, environment variables, and command-line
// flags.
//
// The configuration holds one PathConfig per asset category (source globs,
// watch globs, destination directory and category options), the mode flags
// that gate the pipeline (production, HTML minification, template engine,
// framework support), and the settings of the dev server, the external
// tools and the publish target. Values come from .assetforge.yml,
// ASSETFORGE_* environment variables and flags, in increasing priority.
package config

import (
	"errors"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Template engines.
const (
	EngineHTML = "html"
	EnginePug  = "pug"
)

// Sprite assembly modes.
const (
	SpriteModeSymbol = "symbol"
	SpriteModeStack  = "stack"
)

const (
	DefaultSourceDir = "src"
	DefaultBuildDir  = "build"
)

type Config struct {
	SourceDir string        `mapstructure:"source_dir" yaml:"source_dir"`
	BuildDir  string        `mapstructure:"build_dir" yaml:"build_dir"`
	Flags     Flags         `mapstructure:"flags" yaml:"flags"`
	Paths     Paths         `mapstructure:"paths" yaml:"paths"`
	Server    ServerConfig  `mapstructure:"server" yaml:"server"`
	Styles    StylesConfig  `mapstructure:"styles" yaml:"styles"`
	Scripts   ScriptsConfig `mapstructure:"scripts" yaml:"scripts"`
	Images    ImagesConfig  `mapstructure:"images" yaml:"images"`
	Sprite    SpriteConfig  `mapstructure:"sprite" yaml:"sprite"`
	Watch     WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Publish   PublishConfig `mapstructure:"publish" yaml:"publish"`
	Log       LogConfig     `mapstructure:"log" yaml:"log"`
}

// Flags are the mode switches read by the tasks. Entry points may flip
// Production and HTMLMinify before the graph runs.
type Flags struct {
	Production     bool   `mapstructure:"production" yaml:"production"`
	HTMLMinify     bool   `mapstructure:"html_minify" yaml:"html_minify"`
	TemplateEngine string `mapstructure:"template_engine" yaml:"template_engine"`
	Framework      bool   `mapstructure:"framework" yaml:"framework"`
}

// PathConfig describes one asset category.
type PathConfig struct {
	Src             []string `mapstructure:"src" yaml:"src,omitempty"`
	WatchSrc        []string `mapstructure:"watch_src" yaml:"watch_src,omitempty"`
	Dest            string   `mapstructure:"dest" yaml:"dest,omitempty"`
	MinifiedFileExt string   `mapstructure:"minified_file_ext" yaml:"minified_file_ext,omitempty"`
	Entry           string   `mapstructure:"entry" yaml:"entry,omitempty"`
	SpriteFileName  string   `mapstructure:"sprite_file_name" yaml:"sprite_file_name,omitempty"`
}

type Paths struct {
	Fonts     PathConfig `mapstructure:"fonts" yaml:"fonts"`
	HTML      PathConfig `mapstructure:"html" yaml:"html"`
	Pug       PathConfig `mapstructure:"pug" yaml:"pug"`
	Styles    PathConfig `mapstructure:"styles" yaml:"styles"`
	Scripts   PathConfig `mapstructure:"scripts" yaml:"scripts"`
	Framework PathConfig `mapstructure:"framework" yaml:"framework"`
	Images    PathConfig `mapstructure:"images" yaml:"images"`
	SVG       PathConfig `mapstructure:"svg" yaml:"svg"`
	Sprite    PathConfig `mapstructure:"sprite" yaml:"sprite"`
	Resources PathConfig `mapstructure:"resources" yaml:"resources"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	Open           bool     `mapstructure:"open" yaml:"open"`
	CORS           bool     `mapstructure:"cors" yaml:"cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
}

type StylesConfig struct {
	SassBinary string   `mapstructure:"sass_binary" yaml:"sass_binary"`
	LoadPaths  []string `mapstructure:"load_paths" yaml:"load_paths,omitempty"`
	// Engines are esbuild engine targets ("chrome58", "safari11") used for
	// vendor prefixing.
	Engines []string `mapstructure:"engines" yaml:"engines"`
}

type ScriptsConfig struct {
	OutputFile      string `mapstructure:"output_file" yaml:"output_file"`
	Target          string `mapstructure:"target" yaml:"target"`
	JSXImportSource string `mapstructure:"jsx_import_source" yaml:"jsx_import_source"`
}

type ImagesConfig struct {
	JPEGQuality    int  `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	Progressive    bool `mapstructure:"progressive" yaml:"progressive"`
	PNGCompression int  `mapstructure:"png_compression" yaml:"png_compression"`
	WebPQuality    int  `mapstructure:"webp_quality" yaml:"webp_quality"`
	Concurrency    int  `mapstructure:"concurrency" yaml:"concurrency"`
}

type SpriteConfig struct {
	Mode string `mapstructure:"mode" yaml:"mode"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore,omitempty"`
}

// MarshalYAML writes the debounce delay as a duration string.
func (w WatchConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Debounce string   `yaml:"debounce"`
		Ignore   []string `yaml:"ignore,omitempty"`
	}{w.Debounce.String(), w.Ignore}, nil
}

type PublishConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region    string `mapstructure:"region" yaml:"region,omitempty"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	AccessKey string `mapstructure:"access_key" yaml:"-"`
	SecretKey string `mapstructure:"secret_key" yaml:"-"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultPaths returns the category layout rooted at src and build.
func DefaultPaths(src, build string) Paths {
	s := func(p string) string { return path.Join(src, p) }
	b := func(p string) string { return path.Join(build, p) + "/" }
	root := strings.TrimSuffix(build, "/") + "/"

	return Paths{
		Fonts: PathConfig{
			Src:      []string{s("assets/fonts/*.{woff,woff2}")},
			WatchSrc: []string{s("assets/fonts/*.{woff,woff2}")},
			Dest:     b("assets/fonts"),
		},
		HTML: PathConfig{
			Src:             []string{s("html/*.html")},
			WatchSrc:        []string{s("html/**/*.html")},
			MinifiedFileExt: ".min.html",
			Dest:            root,
		},
		Pug: PathConfig{
			Src:             []string{s("pug/*.pug")},
			WatchSrc:        []string{s("pug/**/*.pug")},
			MinifiedFileExt: ".min.html",
			Dest:            root,
		},
		Styles: PathConfig{
			Src:      []string{s("styles/*.scss")},
			WatchSrc: []string{s("styles/**/*.scss")},
			Dest:     b("assets"),
		},
		Scripts: PathConfig{
			Src:      []string{s("scripts/*.js")},
			Entry:    s("scripts/main.js"),
			WatchSrc: []string{s("scripts/**/*.js")},
			Dest:     b("assets"),
		},
		Framework: PathConfig{
			WatchSrc: []string{s("scripts/**/*.{jsx,tsx}")},
		},
		Images: PathConfig{
			Src:      []string{s("assets/img/**/*.{jpg,jpeg,png,webp}")},
			WatchSrc: []string{s("assets/img/**/*.{jpg,jpeg,png,webp}")},
			Dest:     b("assets/img"),
		},
		SVG: PathConfig{
			Src:      []string{s("assets/img/**/*.svg")},
			WatchSrc: []string{s("assets/img/**/*.svg")},
			Dest:     b("assets/img"),
		},
		Sprite: PathConfig{
			Src:            []string{s("assets/icons/**/icon-*.svg")},
			SpriteFileName: "sprite.svg",
			WatchSrc:       []string{s("assets/icons/**/icon-*.svg")},
			Dest:           b("assets"),
		},
		Resources: PathConfig{
			Src:      []string{s("root-resources/**")},
			WatchSrc: []string{s("root-resources/**")},
			Dest:     root,
		},
	}
}

// Default returns the complete default configuration.
func Default() *Config {
	return &Config{
		SourceDir: DefaultSourceDir,
		BuildDir:  DefaultBuildDir,
		Flags: Flags{
			TemplateEngine: EngineHTML,
		},
		Paths: DefaultPaths(DefaultSourceDir, DefaultBuildDir),
		Server: ServerConfig{
			Host: "localhost",
			Port: 3000,
			Open: true,
			CORS: true,
		},
		Styles: StylesConfig{
			SassBinary: "sass",
			// Roughly "last 5 versions" of the major browsers.
			Engines: []string{"chrome58", "edge16", "firefox57", "safari11", "ios11"},
		},
		Scripts: ScriptsConfig{
			OutputFile:      "bundle.js",
			Target:          "es2017",
			JSXImportSource: "vue",
		},
		Images: ImagesConfig{
			JPEGQuality:    80,
			Progressive:    true,
			PNGCompression: 2,
			WebPQuality:    75,
		},
		Sprite: SpriteConfig{
			Mode: SpriteModeSymbol,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			Ignore:   []string{"node_modules", ".git"},
		},
		Publish: PublishConfig{
			Region: "us-east-1",
			UseSSL: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from v, applying defaults for every
// value that is not set and validating the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(v, &config)

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills zero values from Default. Path categories are derived
// from the (possibly overridden) source and build directories, so moving
// source_dir relocates every glob that was not configured explicitly.
func applyDefaults(v *viper.Viper, config *Config) {
	def := Default()

	if config.SourceDir == "" {
		config.SourceDir = def.SourceDir
	}
	if config.BuildDir == "" {
		config.BuildDir = def.BuildDir
	}
	config.SourceDir = strings.TrimSuffix(config.SourceDir, "/")
	config.BuildDir = strings.TrimSuffix(config.BuildDir, "/")

	if config.Flags.TemplateEngine == "" {
		config.Flags.TemplateEngine = def.Flags.TemplateEngine
	}
	config.Flags.TemplateEngine = strings.ToLower(config.Flags.TemplateEngine)

	paths := DefaultPaths(config.SourceDir, config.BuildDir)
	mergePath(&config.Paths.Fonts, paths.Fonts)
	mergePath(&config.Paths.HTML, paths.HTML)
	mergePath(&config.Paths.Pug, paths.Pug)
	mergePath(&config.Paths.Styles, paths.Styles)
	mergePath(&config.Paths.Scripts, paths.Scripts)
	mergePath(&config.Paths.Framework, paths.Framework)
	mergePath(&config.Paths.Images, paths.Images)
	mergePath(&config.Paths.SVG, paths.SVG)
	mergePath(&config.Paths.Sprite, paths.Sprite)
	mergePath(&config.Paths.Resources, paths.Resources)

	if config.Server.Host == "" {
		config.Server.Host = def.Server.Host
	}
	if !v.IsSet("server.port") {
		config.Server.Port = def.Server.Port
	}
	if !v.IsSet("server.open") {
		config.Server.Open = def.Server.Open
	}
	if v.GetBool("server.no-open") {
		config.Server.Open = false
	}
	if !v.IsSet("server.cors") {
		config.Server.CORS = def.Server.CORS
	}

	if config.Styles.SassBinary == "" {
		config.Styles.SassBinary = def.Styles.SassBinary
	}
	if len(config.Styles.Engines) == 0 {
		config.Styles.Engines = def.Styles.Engines
	}

	if config.Scripts.OutputFile == "" {
		config.Scripts.OutputFile = def.Scripts.OutputFile
	}
	if config.Scripts.Target == "" {
		config.Scripts.Target = def.Scripts.Target
	}
	if config.Scripts.JSXImportSource == "" {
		config.Scripts.JSXImportSource = def.Scripts.JSXImportSource
	}

	if config.Images.JPEGQuality == 0 {
		config.Images.JPEGQuality = def.Images.JPEGQuality
	}
	if !v.IsSet("images.progressive") {
		config.Images.Progressive = def.Images.Progressive
	}
	if !v.IsSet("images.png_compression") {
		config.Images.PNGCompression = def.Images.PNGCompression
	}
	if config.Images.WebPQuality == 0 {
		config.Images.WebPQuality = def.Images.WebPQuality
	}

	if config.Sprite.Mode == "" {
		config.Sprite.Mode = def.Sprite.Mode
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = def.Watch.Debounce
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = def.Watch.Ignore
	}

	if config.Publish.Region == "" {
		config.Publish.Region = def.Publish.Region
	}
	if !v.IsSet("publish.use_ssl") {
		config.Publish.UseSSL = def.Publish.UseSSL
	}

	if config.Log.Level == "" {
		config.Log.Level = def.Log.Level
	}
	if config.Log.Format == "" {
		config.Log.Format = def.Log.Format
	}
}

func mergePath(dst *PathConfig, def PathConfig) {
	if len(dst.Src) == 0 {
		dst.Src = def.Src
	}
	if len(dst.WatchSrc) == 0 {
		dst.WatchSrc = def.WatchSrc
	}
	if dst.Dest == "" {
		dst.Dest = def.Dest
	}
	if dst.MinifiedFileExt == "" {
		dst.MinifiedFileExt = def.MinifiedFileExt
	}
	if dst.Entry == "" {
		dst.Entry = def.Entry
	}
	if dst.SpriteFileName == "" {
		dst.SpriteFileName = def.SpriteFileName
	}
}

// TemplatePaths returns the path configuration of the active template
// engine.
func (c *Config) TemplatePaths() PathConfig {
	if c.Flags.TemplateEngine == EnginePug {
		return c.Paths.Pug
	}
	return c.Paths.HTML
}
