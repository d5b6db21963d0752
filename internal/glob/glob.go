// Package glob selects source files for a task.
//
// A glob such as "src/assets/img/**/*.{jpg,png}" has a static base
// ("src/assets/img") and a pattern part. Matches are reported with their
// path relative to the base so that a task can mirror the source layout
// under its destination directory: "src/assets/img/a/b.png" becomes
// "<dest>/a/b.png".
package glob

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is a parsed source glob.
type Pattern struct {
	Raw  string // as configured, slash separated
	Base string // static directory prefix
	Glob string // remainder, relative to Base
}

// File is one matched source file.
type File struct {
	Path string // path usable with os.Open
	Rel  string // slash separated, relative to the pattern base
}

// Parse splits a glob into its static base and pattern.
func Parse(pattern string) (Pattern, error) {
	raw := filepath.ToSlash(strings.TrimSpace(pattern))
	if raw == "" {
		return Pattern{}, fmt.Errorf("empty glob")
	}
	if !doublestar.ValidatePattern(raw) {
		return Pattern{}, fmt.Errorf("invalid glob %q", pattern)
	}
	base, rest := doublestar.SplitPattern(raw)
	if base == "" {
		base = "."
	}
	return Pattern{Raw: raw, Base: base, Glob: rest}, nil
}

// Validate reports the first invalid glob in patterns.
func Validate(patterns []string) error {
	for _, p := range patterns {
		if _, err := Parse(p); err != nil {
			return err
		}
	}
	return nil
}

// Expand resolves patterns against the file system. The result is sorted by
// path and free of duplicates; a file matched by several patterns keeps the
// relative path of the first one. Patterns whose base directory does not
// exist match nothing.
func Expand(patterns []string) ([]File, error) {
	seen := make(map[string]bool)
	var files []File

	for _, raw := range patterns {
		p, err := Parse(raw)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(filepath.FromSlash(p.Base))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", raw, err)
		}
		if !info.IsDir() {
			// A literal file path: the base is the file itself.
			if !seen[p.Raw] {
				seen[p.Raw] = true
				files = append(files, File{Path: filepath.FromSlash(p.Raw), Rel: path.Base(p.Raw)})
			}
			continue
		}

		matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(p.Base)), p.Glob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", raw, err)
		}
		for _, m := range matches {
			full := path.Join(p.Base, m)
			if seen[full] {
				continue
			}
			seen[full] = true
			files = append(files, File{Path: filepath.FromSlash(full), Rel: m})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Match reports whether name matches pattern.
func (p Pattern) Match(name string) bool {
	ok, _ := doublestar.Match(p.Raw, normalize(name))
	return ok
}

// MatchAny reports whether name matches any of patterns. Invalid patterns
// never match.
func MatchAny(patterns []string, name string) bool {
	name = normalize(name)
	for _, raw := range patterns {
		ok, err := doublestar.Match(filepath.ToSlash(raw), name)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Roots returns the distinct base directories of patterns. The watcher
// registers these recursively.
func Roots(patterns []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, raw := range patterns {
		p, err := Parse(raw)
		if err != nil {
			continue
		}
		dir := filepath.FromSlash(p.Base)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	sort.Strings(roots)
	return roots
}

// DestPath maps a matched file under dest, keeping its relative layout.
func DestPath(dest string, f File) string {
	return filepath.Join(dest, filepath.FromSlash(f.Rel))
}

// WithExt replaces the extension of a destination path.
func WithExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

func normalize(name string) string {
	name = filepath.ToSlash(filepath.Clean(name))
	return strings.TrimPrefix(name, "./")
}
