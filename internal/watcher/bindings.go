package watcher

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/conneroisu/assetforge/internal/glob"
	"github.com/conneroisu/assetforge/internal/pipeline"
)

// Binding reruns Tasks whenever a file matching Patterns changes.
type Binding struct {
	Name     string
	Patterns []string
	Tasks    []pipeline.Task
}

// Series returns the tasks of the binding followed by a browser reload.
func (b Binding) Series() *pipeline.SeriesTask {
	tasks := make([]pipeline.Task, 0, len(b.Tasks)+1)
	tasks = append(tasks, b.Tasks...)
	tasks = append(tasks, pipeline.Refresh())
	return pipeline.Series("watch:"+b.Name, tasks...)
}

// Route returns the bindings whose patterns match path, in binding order.
func Route(bindings []Binding, path string) []Binding {
	var out []Binding
	for _, b := range bindings {
		if glob.MatchAny(b.Patterns, path) {
			out = append(out, b)
		}
	}
	return out
}

// Roots returns the directories that must be watched for bindings.
func Roots(bindings []Binding) []string {
	var patterns []string
	for _, b := range bindings {
		patterns = append(patterns, b.Patterns...)
	}
	return glob.Roots(patterns)
}

// Handler returns a ChangeHandler that runs every binding touched by a
// batch exactly once, in binding order.
func Handler(ctx context.Context, env *pipeline.Env, bindings []Binding) ChangeHandler {
	return func(events []ChangeEvent) error {
		hit := make(map[string]bool)
		for _, ev := range events {
			for _, b := range Route(bindings, ev.Path) {
				hit[b.Name] = true
			}
		}

		var errs []error
		for _, b := range bindings {
			if !hit[b.Name] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			env.Logger.Info(ctx, "change detected", "binding", b.Name)
			if err := pipeline.Exec(ctx, env, b.Series()); err != nil {
				errs = append(errs, err)
			}
		}
		return stderrors.Join(errs...)
	}
}

// Watch registers the roots of bindings, runs their tasks on change and
// blocks until ctx is done.
func Watch(ctx context.Context, env *pipeline.Env, bindings []Binding) error {
	fw, err := NewFileWatcher(env.Config.Watch.Debounce, env.Logger, env.Metrics)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(IgnoreFilter(env.Config.Watch.Ignore...))
	fw.AddFilter(NoTempFilter)

	for _, root := range Roots(bindings) {
		if _, err := os.Stat(root); stderrors.Is(err, fs.ErrNotExist) {
			env.Logger.Debug(ctx, "watch root missing, skipping", "root", root)
			continue
		}
		if err := fw.AddRecursive(root); err != nil {
			return err
		}
	}
	fw.AddHandler(Handler(ctx, env, bindings))

	if err := fw.Start(ctx); err != nil {
		return err
	}
	env.Logger.Info(ctx, "watching for changes", "bindings", len(bindings))
	<-ctx.Done()
	return nil
}
