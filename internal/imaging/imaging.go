// Package imaging compresses raster images and renders WebP copies using
// libvips.
package imaging

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

// Options control production compression.
type Options struct {
	JPEGQuality    int
	Progressive    bool
	PNGCompression int
	WebPQuality    int
}

var (
	startOnce sync.Once
	started   bool
	mu        sync.Mutex
)

// Startup initialises libvips once per process. concurrency controls the
// number of libvips worker threads (0 = auto).
func Startup(concurrency int) {
	startOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: concurrency,
			MaxCacheSize:     100,
			MaxCacheMem:      50 * 1024 * 1024,
		})
		mu.Lock()
		started = true
		mu.Unlock()
	})
}

// Shutdown releases libvips resources. Call at application shutdown.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if started {
		vips.Shutdown()
		started = false
	}
}

// Encoder is the image backend used by the image tasks.
type Encoder interface {
	Compress(name string, data []byte, opts Options) ([]byte, error)
	WebP(data []byte, quality int) ([]byte, error)
}

// Vips implements Encoder with libvips.
type Vips struct{}

// Compress re-encodes data in its own format with the production settings.
// The format is taken from the file extension of name.
func (Vips) Compress(name string, data []byte, opts Options) ([]byte, error) {
	Startup(0)

	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", name, err)
	}
	defer img.Close()

	var out []byte
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = opts.JPEGQuality
		params.Interlace = opts.Progressive
		params.StripMetadata = true
		out, _, err = img.ExportJpeg(params)
	case ".png":
		params := vips.NewPngExportParams()
		params.Compression = opts.PNGCompression
		params.StripMetadata = true
		out, _, err = img.ExportPng(params)
	case ".webp":
		params := vips.NewWebpExportParams()
		params.Quality = opts.WebPQuality
		params.StripMetadata = true
		out, _, err = img.ExportWebp(params)
	default:
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("imaging: export %s: %w", name, err)
	}

	// Recompressing an already optimised file can grow it.
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

// WebP renders data as a lossy WebP image.
func (Vips) WebP(data []byte, quality int) ([]byte, error) {
	Startup(0)

	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	defer img.Close()

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.Lossless = false
	params.StripMetadata = true

	out, _, err := img.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("imaging: export webp: %w", err)
	}
	return out, nil
}
