package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/watcher"
)

// BindingsFunc builds the watch table for the active configuration.
type BindingsFunc func(cfg *config.Config) []watcher.Binding

// Task returns the serve task: it starts the dev server, switches the
// pipeline into watch mode and reruns bindings on change until ctx is done.
func Task(bindings BindingsFunc) pipeline.Task {
	return pipeline.Func("serve", func(ctx context.Context, env *pipeline.Env) error {
		srv := New(env)
		if err := srv.Listen(); err != nil {
			return err
		}

		env.SetNotifier(srv.Hub())
		env.SetIntercept(true)
		defer func() {
			env.SetIntercept(false)
			env.SetNotifier(nil)
		}()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Start(gctx)
		})
		g.Go(func() error {
			return watcher.Watch(gctx, env, bindings(env.Config))
		})
		return g.Wait()
	})
}
