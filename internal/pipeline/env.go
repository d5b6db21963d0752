package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/conneroisu/assetforge/internal/cache"
	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/metrics"
)

// Notifier receives build events for connected browsers.
type Notifier interface {
	Reload()
	CSSUpdate(path string)
	BuildError(title, message string)
	BuildOK()
}

type nopNotifier struct{}

func (nopNotifier) Reload() {}
func (nopNotifier) CSSUpdate(string) {}
func (nopNotifier) BuildError(string, string) {}
func (nopNotifier) BuildOK() {}

// NopNotifier discards every event.
func NopNotifier() Notifier { return nopNotifier{} }

// Env is shared by every task of one process.
type Env struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Cache   *cache.Cache
	Errors  *errors.ErrorCollector

	mu        sync.RWMutex
	flags     config.Flags
	notifier  Notifier
	intercept atomic.Bool
}

// NewEnv creates an environment whose mode flags start from cfg.Flags.
func NewEnv(cfg *config.Config, logger logging.Logger) *Env {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Env{
		Config:   cfg,
		Logger:   logger,
		Errors:   errors.NewErrorCollector(),
		flags:    cfg.Flags,
		notifier: NopNotifier(),
	}
}

// Flags returns a copy of the current mode flags.
func (e *Env) Flags() config.Flags {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.flags
}

func (e *Env) SetProduction(on bool) {
	e.mu.Lock()
	e.flags.Production = on
	e.mu.Unlock()
}

func (e *Env) SetHTMLMinify(on bool) {
	e.mu.Lock()
	e.flags.HTMLMinify = on
	e.mu.Unlock()
}

// SetNotifier replaces the event sink. Passing nil restores the no-op sink.
func (e *Env) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier()
	}
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

func (e *Env) Notifier() Notifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.notifier
}

// SetIntercept turns watch mode error interception on or off.
func (e *Env) SetIntercept(on bool) {
	e.intercept.Store(on)
}

func (e *Env) Intercepting() bool {
	return e.intercept.Load()
}
