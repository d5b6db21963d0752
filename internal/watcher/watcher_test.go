package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/testutils"
)

type batches struct {
	mu  sync.Mutex
	all [][]ChangeEvent
}

func (b *batches) handle(events []ChangeEvent) error {
	b.mu.Lock()
	b.all = append(b.all, events)
	b.mu.Unlock()
	return nil
}

func (b *batches) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, batch := range b.all {
		for _, ev := range batch {
			out = append(out, filepath.ToSlash(ev.Path))
		}
	}
	return out
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestDebouncerDeduplicatesByPath(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)

	d.pending = []ChangeEvent{
		{Type: EventTypeCreated, Path: "src/b.scss"},
		{Type: EventTypeModified, Path: "src/a.scss"},
		{Type: EventTypeModified, Path: "src/b.scss"},
		{Type: EventTypeDeleted, Path: "src/a.scss"},
	}
	d.flush()

	select {
	case events := <-d.output:
		require.Len(t, events, 2)
		assert.Equal(t, "src/a.scss", events[0].Path)
		assert.Equal(t, EventTypeDeleted, events[0].Type)
		assert.Equal(t, "src/b.scss", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	default:
		t.Fatal("no batch flushed")
	}
	assert.Empty(t, d.pending)

	// Nothing pending, nothing sent.
	d.flush()
	assert.Empty(t, d.output)
}

func TestIgnoreFilter(t *testing.T) {
	filter := IgnoreFilter("node_modules", ".git")

	testCases := []struct {
		path     string
		expected bool
	}{
		{"src/styles/main.scss", true},
		{"src/node_modules/pkg/index.js", false},
		{".git/HEAD", false},
		{"src/git/notes.txt", true},
		{"src/node_modules_backup/a.js", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(tc.path))
		})
	}
}

func TestNoTempFilter(t *testing.T) {
	assert.True(t, NoTempFilter("src/html/index.html"))
	assert.False(t, NoTempFilter("src/html/index.html~"))
	assert.False(t, NoTempFilter("src/html/.index.html.swp"))
	assert.False(t, NoTempFilter("src/html/.#index.html"))
}

func TestValidatePathRejectsOutsideWorkingDirectory(t *testing.T) {
	testutils.TempWorkDir(t)
	fw, err := NewFileWatcher(10*time.Millisecond, nil, nil)
	require.NoError(t, err)
	defer fw.Stop()

	require.NoError(t, os.MkdirAll("src", 0o755))
	assert.NoError(t, fw.AddRecursive("src"))
	assert.Error(t, fw.AddRecursive("../elsewhere"))
	assert.Error(t, fw.AddRecursive(os.TempDir()))
}

func TestRouteAndRoots(t *testing.T) {
	styles := pipeline.Func("styles", nil)
	images := pipeline.Func("images", nil)
	webp := pipeline.Func("webp", nil)
	bindings := []Binding{
		{Name: "styles", Patterns: []string{"src/styles/**/*.scss"}, Tasks: []pipeline.Task{styles}},
		{Name: "images", Patterns: []string{"src/img/**/*.{png,jpg}"}, Tasks: []pipeline.Task{images, webp}},
	}

	got := Route(bindings, "src/img/a/b.png")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"images", "webp", "refresh"}, pipeline.Flatten(got[0].Series()))
	assert.Equal(t, "watch:images", got[0].Series().Name())

	assert.Empty(t, Route(bindings, "src/img/a/b.gif"))
	assert.Equal(t, []string{"src/img", "src/styles"}, Roots(bindings))
}

func TestFileWatcherDeliversDebouncedChanges(t *testing.T) {
	testutils.TempWorkDir(t)
	require.NoError(t, os.MkdirAll("src/styles", 0o755))
	require.NoError(t, os.MkdirAll("src/node_modules", 0o755))

	fw, err := NewFileWatcher(50*time.Millisecond, logging.Nop(), nil)
	require.NoError(t, err)
	defer fw.Stop()

	fw.AddFilter(IgnoreFilter("node_modules"))
	got := &batches{}
	fw.AddHandler(got.handle)
	require.NoError(t, fw.AddRecursive("src"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile("src/styles/main.scss", []byte{byte('a' + i)}, 0o644))
	}
	require.NoError(t, os.WriteFile("src/node_modules/ignored.js", []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return len(got.paths()) > 0
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	paths := got.paths()
	assert.Contains(t, paths, "src/styles/main.scss")
	assert.NotContains(t, paths, "src/node_modules/ignored.js")
	// Rapid writes collapse into a single entry per path.
	count := 0
	for _, p := range paths {
		if p == "src/styles/main.scss" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFileWatcherFollowsNewDirectories(t *testing.T) {
	testutils.TempWorkDir(t)
	require.NoError(t, os.MkdirAll("src", 0o755))

	fw, err := NewFileWatcher(20*time.Millisecond, nil, nil)
	require.NoError(t, err)
	defer fw.Stop()

	got := &batches{}
	fw.AddHandler(got.handle)
	require.NoError(t, fw.AddRecursive("src"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.MkdirAll("src/partials", 0o755))
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile("src/partials/nav.html", []byte("<nav>"), 0o644))

	require.Eventually(t, func() bool {
		for _, p := range got.paths() {
			if p == "src/partials/nav.html" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchRunsBindingUntilCancelled(t *testing.T) {
	testutils.TempWorkDir(t)
	require.NoError(t, os.MkdirAll("src/styles", 0o755))

	cfg := config.Default()
	cfg.Watch.Debounce = 20 * time.Millisecond
	env := testutils.NewEnv(t, cfg)

	ran := make(chan struct{}, 10)
	bindings := []Binding{{
		Name:     "styles",
		Patterns: []string{"src/styles/**/*.scss"},
		Tasks: []pipeline.Task{pipeline.Func("styles", func(context.Context, *pipeline.Env) error {
			ran <- struct{}{}
			return nil
		})},
	}, {
		Name:     "missing",
		Patterns: []string{"src/nowhere/*.txt"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, env, bindings) }()

	// Keep touching the file until the watcher picks it up.
	require.Eventually(t, func() bool {
		_ = os.WriteFile("src/styles/main.scss", []byte("a{}"), 0o644)
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
