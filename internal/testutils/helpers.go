// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/metrics"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// WriteFiles writes files (slash-separated path to content) under root,
// creating directories as needed.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// TempTree creates a temporary directory holding files.
func TempTree(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// Chdir changes the working directory for the rest of the test.
func Chdir(t testing.TB, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// TempWorkDir moves the test into a fresh directory and returns it. Tasks
// and the watcher resolve their globs against the working directory.
func TempWorkDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	Chdir(t, dir)
	return dir
}

// ReadFile returns the content of name.
func ReadFile(t testing.TB, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

// NewEnv returns a quiet task environment for cfg with metrics and an
// output cache attached. A nil cfg uses config.Default.
func NewEnv(t testing.TB, cfg *config.Config) *pipeline.Env {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	env := pipeline.NewEnv(cfg, logging.Nop())
	env.Metrics = metrics.New()
	c, err := cache.New(64)
	require.NoError(t, err)
	env.Cache = c
	return env
}
