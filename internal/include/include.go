// Package include expands file include directives in HTML pages.
//
// A directive has the form
//
//	@include('partials/header.html')
//	@include('partials/card.html', {"title": "Hello", "count": 3})
//
// The path is resolved relative to the file containing the directive. The
// included file is processed recursively; inside it every @key of the
// context object is replaced by its value. Contexts of nested includes are
// merged over the context of the including file.
package include

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/conneroisu/assetforge/internal/errors"
)

const directive = "@include("

// MaxDepth bounds include nesting.
const MaxDepth = 32

// Resolver expands include directives.
type Resolver struct {
	// ReadFile loads an included file. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	// Deps collects every file read while resolving, keyed by path. The
	// html task digests them to decide whether a page needs rebuilding.
	Deps map[string]bool
}

// New returns a resolver reading from the file system.
func New() *Resolver {
	return &Resolver{ReadFile: os.ReadFile, Deps: make(map[string]bool)}
}

// File reads path and expands its directives.
func (r *Resolver) File(path string) ([]byte, error) {
	data, err := r.read(path)
	if err != nil {
		return nil, errors.NewIOError("INCLUDE_READ", "cannot read page", err).WithLocation(path, 0, 0)
	}
	return r.expand(data, path, nil, []string{abs(path)})
}

func (r *Resolver) read(path string) ([]byte, error) {
	read := r.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return nil, err
	}
	if r.Deps != nil {
		r.Deps[filepath.Clean(path)] = true
	}
	return data, nil
}

func (r *Resolver) expand(src []byte, file string, vars map[string]any, stack []string) ([]byte, error) {
	if len(stack) > MaxDepth {
		return nil, errors.NewBuildError("INCLUDE_DEPTH", fmt.Sprintf("includes nested deeper than %d", MaxDepth), nil).
			WithLocation(file, 0, 0)
	}

	var out bytes.Buffer
	rest := src
	consumed := 0

	for {
		i := bytes.Index(rest, []byte(directive))
		if i < 0 {
			out.Write(rest)
			break
		}
		out.Write(rest[:i])

		line := bytes.Count(src[:consumed+i], []byte("\n")) + 1
		d, n, err := parseDirective(rest[i+len(directive):])
		if err != nil {
			return nil, errors.NewBuildError("INCLUDE_SYNTAX", "malformed include directive", err).
				WithLocation(file, line, 0)
		}

		target := d.path
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(file), filepath.FromSlash(target))
		}
		key := abs(target)
		for _, s := range stack {
			if s == key {
				return nil, errors.NewBuildError("INCLUDE_CYCLE",
					fmt.Sprintf("include cycle: %s", strings.Join(append(stack, key), " -> ")), nil).
					WithLocation(file, line, 0)
			}
		}

		data, err := r.read(target)
		if err != nil {
			return nil, errors.NewBuildError("INCLUDE_MISSING", "cannot include "+d.path, err).
				WithLocation(file, line, 0)
		}

		merged := merge(vars, d.vars)
		expanded, err := r.expand(data, target, merged, append(stack, key))
		if err != nil {
			return nil, err
		}
		out.Write(substitute(expanded, merged))

		advance := i + len(directive) + n
		consumed += advance
		rest = rest[advance:]
	}

	return out.Bytes(), nil
}

type parsed struct {
	path string
	vars map[string]any
}

// parseDirective reads the arguments following "@include(" and returns the
// number of bytes consumed, closing parenthesis included.
func parseDirective(b []byte) (parsed, int, error) {
	pos := skipSpace(b, 0)
	if pos >= len(b) || (b[pos] != '\'' && b[pos] != '"') {
		return parsed{}, 0, fmt.Errorf("expected quoted path")
	}
	quote := b[pos]
	end := bytes.IndexByte(b[pos+1:], quote)
	if end < 0 {
		return parsed{}, 0, fmt.Errorf("unterminated path")
	}
	p := parsed{path: string(b[pos+1 : pos+1+end])}
	if strings.TrimSpace(p.path) == "" {
		return parsed{}, 0, fmt.Errorf("empty path")
	}
	pos = skipSpace(b, pos+1+end+1)

	if pos < len(b) && b[pos] == ',' {
		pos = skipSpace(b, pos+1)
		dec := json.NewDecoder(bytes.NewReader(b[pos:]))
		dec.UseNumber()
		if err := dec.Decode(&p.vars); err != nil {
			return parsed{}, 0, fmt.Errorf("context: %w", err)
		}
		pos = skipSpace(b, pos+int(dec.InputOffset()))
	}

	if pos >= len(b) || b[pos] != ')' {
		return parsed{}, 0, fmt.Errorf("expected ')'")
	}
	return p, pos + 1, nil
}

func skipSpace(b []byte, pos int) int {
	for pos < len(b) && (b[pos] == ' ' || b[pos] == '\t' || b[pos] == '\n' || b[pos] == '\r') {
		pos++
	}
	return pos
}

func merge(parent, child map[string]any) map[string]any {
	if len(parent) == 0 && len(child) == 0 {
		return nil
	}
	m := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		m[k] = v
	}
	for k, v := range child {
		m[k] = v
	}
	return m
}

var variable = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

// substitute replaces @key with the value of key. Names are matched whole,
// so @title leaves @titleColor alone; unknown names are kept verbatim.
func substitute(b []byte, vars map[string]any) []byte {
	if len(vars) == 0 {
		return b
	}
	return variable.ReplaceAllFunc(b, func(m []byte) []byte {
		v, ok := vars[string(m[1:])]
		if !ok {
			return m
		}
		return []byte(format(v))
	})
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func abs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return a
}
