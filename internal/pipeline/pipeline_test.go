package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/assetforge/internal/config"
	forgeerrors "github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/metrics"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) Reload() { r.add("reload") }
func (r *recorder) CSSUpdate(path string) { r.add("css:" + path) }
func (r *recorder) BuildError(title, msg string) { r.add("error:" + title + ":" + msg) }
func (r *recorder) BuildOK() { r.add("ok") }

func newEnv(t *testing.T) (*Env, *recorder) {
	t.Helper()
	env := NewEnv(config.Default(), logging.Nop())
	env.Metrics = metrics.New()
	rec := &recorder{}
	env.SetNotifier(rec)
	return env, rec
}

func TestSeriesRunsInOrderAndStopsAtFirstError(t *testing.T) {
	env, _ := newEnv(t)
	var ran []string
	step := func(name string, err error) Task {
		return Func(name, func(context.Context, *Env) error {
			ran = append(ran, name)
			return err
		})
	}

	boom := errors.New("boom")
	s := Series("build", step("a", nil), Series("inner", step("b", nil), step("c", boom)), step("d", nil))

	err := Exec(context.Background(), env, s)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	assert.Equal(t, []string{"a", "b", "c", "d"}, Flatten(s))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.TaskFailures.WithLabelValues("c")))
}

func TestSeriesHonoursCancellation(t *testing.T) {
	env, _ := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	ran := false
	s := Series("s",
		Func("cancel", func(context.Context, *Env) error { cancel(); return nil }),
		Func("never", func(context.Context, *Env) error { ran = true; return nil }),
	)
	err := Exec(ctx, env, s)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestFlagTasks(t *testing.T) {
	env, _ := newEnv(t)
	var seen config.Flags
	var intercepting bool
	s := Series("buildMinAll", EnableHTMLMinify(), ToProduction(), WatchMode(), Func("flags", func(_ context.Context, env *Env) error {
		seen = env.Flags()
		intercepting = env.Intercepting()
		return nil
	}))

	require.NoError(t, Exec(context.Background(), env, s))
	assert.True(t, seen.Production)
	assert.True(t, seen.HTMLMinify)
	assert.True(t, intercepting)
	assert.Equal(t, config.EngineHTML, seen.TemplateEngine)
}

func TestInterceptionOnlyInWatchMode(t *testing.T) {
	failing := Interceptable("styles", "SCSS", func(context.Context, *Env) error {
		return forgeerrors.NewBuildError("SCSS_COMPILE", "compile failed", errors.New(`expected ";"`)).
			WithLocation("src/styles/main.scss", 3, 13)
	})

	t.Run("one-shot build propagates", func(t *testing.T) {
		env, rec := newEnv(t)
		err := Exec(context.Background(), env, Series("build", failing))
		require.Error(t, err)
		assert.Empty(t, rec.events)
		assert.False(t, env.Errors.HasErrors())
	})

	t.Run("watch mode reports and continues", func(t *testing.T) {
		env, rec := newEnv(t)
		env.SetIntercept(true)

		after := false
		s := Series("watch", failing, Func("next", func(context.Context, *Env) error {
			after = true
			return nil
		}))
		require.NoError(t, Exec(context.Background(), env, s))
		assert.True(t, after)

		require.Len(t, rec.events, 1)
		assert.Contains(t, rec.events[0], "error:SCSS:Error: ")
		assert.Contains(t, rec.events[0], `expected ";"`)

		errs := env.Errors.GetErrorsByTask("styles")
		require.Len(t, errs, 1)
		assert.Equal(t, "src/styles/main.scss", errs[0].File)
		assert.Equal(t, 3, errs[0].Line)
		assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.Intercepted.WithLabelValues("styles")))
	})

	t.Run("plain tasks are never intercepted", func(t *testing.T) {
		env, _ := newEnv(t)
		env.SetIntercept(true)
		err := Exec(context.Background(), env, Func("clean", func(context.Context, *Env) error {
			return errors.New("permission denied")
		}))
		assert.Error(t, err)
	})
}

func TestInterceptionCollectsToolDiagnostics(t *testing.T) {
	env, _ := newEnv(t)
	env.SetIntercept(true)

	task := Interceptable("styles", "SCSS", func(context.Context, *Env) error {
		return forgeerrors.NewBuildError("SCSS_COMPILE", "expected \";\".", nil).
			WithLocation("src/styles/main.scss", 3, 13).
			WithDiagnostics([]forgeerrors.BuildError{
				{File: "src/styles/main.scss", Line: 3, Column: 13, Message: "expected \";\".\n3 |   color: red"},
				{File: "src/styles/_vars.scss", Line: 1, Column: 1, Message: "deprecated", Severity: forgeerrors.ErrorSeverityWarning},
			})
	})

	require.NoError(t, Exec(context.Background(), env, task))
	errs := env.Errors.GetErrorsByTask("styles")
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "3 |   color: red")
	assert.Equal(t, "src/styles/_vars.scss", errs[1].File)

	// A rerun replaces the entries instead of piling them up.
	require.NoError(t, Exec(context.Background(), env, task))
	assert.Len(t, env.Errors.GetErrorsByTask("styles"), 2)
}

func TestRecoveryNotifiesBuildOK(t *testing.T) {
	env, rec := newEnv(t)
	env.SetIntercept(true)

	fail := true
	task := Interceptable("scripts", "JS", func(context.Context, *Env) error {
		if fail {
			return errors.New("unexpected token")
		}
		return nil
	})

	require.NoError(t, Exec(context.Background(), env, task))
	fail = false
	require.NoError(t, Exec(context.Background(), env, task))
	require.NoError(t, Exec(context.Background(), env, task))

	assert.Equal(t, []string{"error:JS:Error: unexpected token", "ok"}, rec.events)
	assert.False(t, env.Errors.HasErrors())
}

func TestRefresh(t *testing.T) {
	env, rec := newEnv(t)
	require.NoError(t, Exec(context.Background(), env, Refresh()))
	assert.Equal(t, []string{"reload"}, rec.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.Reloads.WithLabelValues("full_reload")))
}

func TestExecLogsStartAndFinish(t *testing.T) {
	var buf bytes.Buffer
	env := NewEnv(config.Default(), logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelInfo, Output: &buf}))

	require.NoError(t, Exec(context.Background(), env, Func("fonts", func(context.Context, *Env) error { return nil })))
	assert.Contains(t, buf.String(), "Starting 'fonts'...")
	assert.Contains(t, buf.String(), "Finished 'fonts'")
}

func TestLookup(t *testing.T) {
	a := Func("fonts", nil)
	b := Func("styles", nil)

	got, err := Lookup("styles", a, b)
	require.NoError(t, err)
	assert.Equal(t, "styles", got.Name())

	_, err = Lookup("nope", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fonts, styles")
}

func TestSetNotifierNil(t *testing.T) {
	env, _ := newEnv(t)
	env.SetNotifier(nil)
	assert.NotPanics(t, func() { env.Notifier().Reload() })
}
