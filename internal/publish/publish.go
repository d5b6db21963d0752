// Package publish uploads the build tree to object storage.
package publish

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/logging"
)

// Result summarises one publish run.
type Result struct {
	Uploaded int
	Skipped  int
}

// Publisher mirrors a local directory into a Store.
type Publisher struct {
	Store       Store
	Prefix      string
	Concurrency int
	Logger      logging.Logger
}

// Publish uploads every file under root whose content differs from the
// stored object.
func (p *Publisher) Publish(ctx context.Context, root string) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	var files []string
	err := filepath.WalkDir(root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return Result{}, errors.NewIOError("WALK", "cannot read build directory", err).WithLocation(root, 0, 0)
	}

	prefix := normalizePrefix(p.Prefix)
	existing, err := p.Store.Objects(ctx, prefix)
	if err != nil {
		return Result{}, errors.NewNetworkError("LIST", "cannot list published objects", err)
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var uploaded, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, name := range files {
		name := name // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			rel, err := filepath.Rel(root, name)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(name)
			if err != nil {
				return errors.NewIOError("READ", "cannot read file", err).WithLocation(name, 0, 0)
			}

			key := ObjectKey(prefix, rel)
			sum := md5.Sum(data)
			if existing[key] == hex.EncodeToString(sum[:]) {
				skipped.Add(1)
				return nil
			}

			if err := p.Store.Put(gctx, key, data, ContentType(key)); err != nil {
				return errors.NewNetworkError("PUT", "cannot upload "+key, err)
			}
			uploaded.Add(1)
			logger.Debug(gctx, "uploaded", "key", key, "bytes", len(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Uploaded: int(uploaded.Load()), Skipped: int(skipped.Load())}
	logger.Info(ctx, "published build", "uploaded", res.Uploaded, "unchanged", res.Skipped)
	return res, nil
}

// ObjectKey joins prefix and a path relative to the build root.
func ObjectKey(prefix, rel string) string {
	rel = strings.TrimLeft(filepath.ToSlash(rel), "/")
	return normalizePrefix(prefix) + rel
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(filepath.ToSlash(strings.TrimSpace(prefix)), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

var contentTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".html":  "text/html; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".map":   "application/json",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".txt":   "text/plain; charset=utf-8",
}

// ContentType picks the Content-Type for an object by extension.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// cacheControl keeps HTML revalidated and lets other assets be cached.
func cacheControl(key string) string {
	if strings.EqualFold(path.Ext(key), ".html") {
		return "no-cache"
	}
	return "public, max-age=3600"
}
