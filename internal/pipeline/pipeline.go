// Package pipeline composes tasks into the series run by the entry points
// and the watcher.
//
// Every task run goes through Exec, which logs the start and the duration,
// records metrics and, when the environment intercepts errors (watch mode),
// turns the failure of an interceptable task into a browser notification so
// that the loop keeps running.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/logging"
)

// Task is a named unit of work.
type Task interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// RunFunc is the body of a Func task.
type RunFunc func(ctx context.Context, env *Env) error

type funcTask struct {
	name  string
	title string
	fn    RunFunc
}

func (t *funcTask) Name() string { return t.name }

func (t *funcTask) Run(ctx context.Context, env *Env) error { return t.fn(ctx, env) }

// Func wraps fn as a task.
func Func(name string, fn RunFunc) Task {
	return &funcTask{name: name, fn: fn}
}

// Interceptable wraps fn as a task whose failures are reported under title
// instead of returned while the environment intercepts errors.
func Interceptable(name, title string, fn RunFunc) Task {
	return &funcTask{name: name, title: title, fn: fn}
}

// SeriesTask runs its children one after another.
type SeriesTask struct {
	name  string
	tasks []Task
}

// Series composes tasks to run in order. It stops at the first error.
func Series(name string, tasks ...Task) *SeriesTask {
	return &SeriesTask{name: name, tasks: tasks}
}

func (s *SeriesTask) Name() string { return s.name }

// Tasks returns the direct children.
func (s *SeriesTask) Tasks() []Task { return s.tasks }

func (s *SeriesTask) Run(ctx context.Context, env *Env) error {
	for _, t := range s.tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Exec(ctx, env, t); err != nil {
			return err
		}
	}
	return nil
}

// ToProduction switches the production flag on.
func ToProduction() Task {
	return Func("toProd", func(_ context.Context, env *Env) error {
		env.SetProduction(true)
		return nil
	})
}

// WatchMode switches error interception on, so that a broken source file
// fails its task without stopping the series.
func WatchMode() Task {
	return Func("watchMode", func(_ context.Context, env *Env) error {
		env.SetIntercept(true)
		return nil
	})
}

// EnableHTMLMinify switches HTML minification on.
func EnableHTMLMinify() Task {
	return Func("htmlMinify", func(_ context.Context, env *Env) error {
		env.SetHTMLMinify(true)
		return nil
	})
}

// Refresh asks every connected browser to reload.
func Refresh() Task {
	return Func("refresh", func(_ context.Context, env *Env) error {
		env.Notifier().Reload()
		env.Metrics.Reload("full_reload")
		return nil
	})
}

// Flatten returns the names of the leaf tasks in execution order.
func Flatten(t Task) []string {
	s, ok := t.(*SeriesTask)
	if !ok {
		return []string{t.Name()}
	}
	var names []string
	for _, c := range s.tasks {
		names = append(names, Flatten(c)...)
	}
	return names
}

// Exec runs t with logging, metrics and error interception.
func Exec(ctx context.Context, env *Env, t Task) error {
	perf := logging.StartOperation(env.Logger, t.Name())
	perf.Info(ctx, "Starting '"+t.Name()+"'...")

	err := t.Run(ctx, env)
	d := perf.Elapsed()
	env.Metrics.ObserveTask(t.Name(), d, err)

	ft, leaf := t.(*funcTask)

	if err == nil {
		perf.End(ctx)
		if leaf && ft.title != "" {
			recovered(env, ft.name)
		}
		return nil
	}

	if leaf && ft.title != "" && env.Intercepting() && ctx.Err() == nil {
		intercept(ctx, env, ft, err)
		return nil
	}

	perf.EndWithError(ctx, err)
	return err
}

func intercept(ctx context.Context, env *Env, t *funcTask, err error) {
	env.Logger.Error(ctx, err, t.title+" error intercepted", "task", t.name)
	env.Metrics.ObserveIntercepted(t.name)

	env.Errors.ClearTask(t.name)
	diags := errors.Diagnostics(err)
	if len(diags) == 0 {
		diags = []errors.BuildError{toBuildError(t.name, err)}
	}
	for _, d := range diags {
		d.Task = t.name
		env.Errors.Add(d)
	}

	env.Notifier().BuildError(t.title, Message(err))
}

// recovered clears the errors of a task that succeeded again and tells the
// browsers once nothing is left.
func recovered(env *Env, task string) {
	if len(env.Errors.GetErrorsByTask(task)) == 0 {
		return
	}
	env.Errors.ClearTask(task)
	if !env.Errors.HasErrors() {
		env.Notifier().BuildOK()
	}
}

// Message renders err the way it is shown to the developer.
func Message(err error) string {
	return "Error: " + strings.TrimSpace(err.Error())
}

func toBuildError(task string, err error) errors.BuildError {
	file, line, col := errors.Location(err)
	return errors.BuildError{
		Task:      task,
		File:      file,
		Line:      line,
		Column:    col,
		Message:   err.Error(),
		Severity:  errors.ErrorSeverityError,
		Timestamp: time.Now(),
	}
}

// Lookup finds a task by name among candidates.
func Lookup(name string, candidates ...Task) (Task, error) {
	for _, t := range candidates {
		if t.Name() == name {
			return t, nil
		}
	}
	names := make([]string, len(candidates))
	for i, t := range candidates {
		names[i] = t.Name()
	}
	return nil, fmt.Errorf("task %q is not defined (available: %s)", name, strings.Join(names, ", "))
}
