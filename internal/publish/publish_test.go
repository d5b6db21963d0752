package publish

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/testutils"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	puts    []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]string{}, types: map[string]string{}}
}

func (m *memStore) Objects(_ context.Context, prefix string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.objects))
	for k, v := range m.objects {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	sum := md5.Sum(data)
	m.objects[key] = hex.EncodeToString(sum[:])
	m.types[key] = contentType
	m.puts = append(m.puts, key)
	return nil
}

func TestPublishUploadsChangedFiles(t *testing.T) {
	root := testutils.TempTree(t, map[string]string{
		"index.html":           "<html></html>",
		"assets/main.css":      "a{}",
		"assets/img/logo.svg":  "<svg/>",
		"assets/fonts/a.woff2": "font",
	})
	store := newMemStore()
	p := &Publisher{Store: store, Prefix: "/site/v1/"}

	res, err := p.Publish(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Result{Uploaded: 4}, res)
	assert.ElementsMatch(t, []string{
		"site/v1/index.html",
		"site/v1/assets/main.css",
		"site/v1/assets/img/logo.svg",
		"site/v1/assets/fonts/a.woff2",
	}, store.puts)
	assert.Equal(t, "text/css; charset=utf-8", store.types["site/v1/assets/main.css"])
	assert.Equal(t, "font/woff2", store.types["site/v1/assets/fonts/a.woff2"])

	// Second run with one changed file.
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "main.css"), []byte("b{}"), 0o644))
	store.puts = nil
	res, err = p.Publish(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Result{Uploaded: 1, Skipped: 3}, res)
	assert.Equal(t, []string{"site/v1/assets/main.css"}, store.puts)
}

func TestPublishReportsUploadErrors(t *testing.T) {
	root := testutils.TempTree(t, map[string]string{"index.html": "x"})
	store := newMemStore()
	store.err = assert.AnError

	_, err := (&Publisher{Store: store}).Publish(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.html")
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, rel, want string
	}{
		{"", "index.html", "index.html"},
		{"site", "assets/main.css", "site/assets/main.css"},
		{"/site/", "/assets/main.css", "site/assets/main.css"},
		{"  a/b ", "c.js", "a/b/c.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.rel))
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", ContentType("index.html"))
	assert.Equal(t, "text/javascript; charset=utf-8", ContentType("assets/bundle.js"))
	assert.Equal(t, "image/webp", ContentType("img/a.WEBP"))
	assert.Equal(t, "image/png", ContentType("img/a.png"))
	assert.Equal(t, "application/octet-stream", ContentType("data.unknownext"))
	assert.Equal(t, "no-cache", cacheControl("index.html"))
	assert.Equal(t, "public, max-age=3600", cacheControl("a.css"))
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	_, err := NewS3Store(config.PublishConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Store(config.PublishConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewS3Store(config.PublishConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(config.PublishConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "site"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
