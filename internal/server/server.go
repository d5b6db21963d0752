// Package server serves the build tree during development and pushes
// reload, stylesheet and build-error events to the open pages over a
// websocket.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"

	"github.com/conneroisu/assetforge/internal/config"
	"github.com/conneroisu/assetforge/internal/errors"
	"github.com/conneroisu/assetforge/internal/logging"
	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/validation"
	"github.com/conneroisu/assetforge/internal/version"
)

// DevServer serves the build directory with live reload.
type DevServer struct {
	cfg    *config.Config
	env    *pipeline.Env
	hub    *Hub
	logger logging.Logger

	ctx          context.Context
	serverMutex  sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
}

// New creates a dev server for env. The hub is not running until Start.
func New(env *pipeline.Env) *DevServer {
	logger := env.Logger.WithComponent("server")
	return &DevServer{
		cfg:    env.Config,
		env:    env,
		hub:    NewHub(env.Logger, env.Metrics),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Hub returns the reload hub, which doubles as the pipeline notifier.
func (s *DevServer) Hub() *Hub {
	return s.hub
}

// Handler returns the routes of the dev server.
func (s *DevServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(routeWS, s.handleWebSocket)
	mux.HandleFunc(routeHealth, s.handleHealth)
	mux.Handle(routeMetrics, s.env.Metrics.Handler())
	mux.HandleFunc(routeErrors, s.handleErrors)
	mux.Handle("/", s.staticHandler())

	var handler http.Handler = mux
	if s.cfg.Server.CORS {
		origins := s.cfg.Server.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		handler = cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		})(handler)
	}
	return s.logRequests(handler)
}

// Listen binds the configured address. Port 0 picks a free port.
func (s *DevServer) Listen() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, fmt.Sprint(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewNetworkError("LISTEN", "cannot listen on "+addr, err)
	}

	s.serverMutex.Lock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serverMutex.Unlock()
	return nil
}

// URL returns the address browsers should open.
func (s *DevServer) URL() string {
	host := s.cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return (&url.URL{Scheme: "http", Host: net.JoinHostPort(host, fmt.Sprint(s.port()))}).String() + "/"
}

func (s *DevServer) port() int {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	return s.cfg.Server.Port
}

// Start runs the hub and serves until ctx is done or the server fails.
// Listen is called first when it has not been.
func (s *DevServer) Start(ctx context.Context) error {
	s.serverMutex.RLock()
	bound := s.httpServer != nil
	s.serverMutex.RUnlock()
	if !bound {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.ctx = ctx
	go s.hub.Run(ctx)

	s.serverMutex.RLock()
	srv, ln := s.httpServer, s.listener
	s.serverMutex.RUnlock()

	s.logger.Info(ctx, "dev server listening", "url", s.URL(), "root", s.cfg.BuildDir)
	if s.cfg.Server.Open {
		go s.openBrowser(s.URL())
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errc <- errors.NewNetworkError("SERVE", "server error", err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the HTTP server.
func (s *DevServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down dev server")
		s.serverMutex.RLock()
		srv := s.httpServer
		s.serverMutex.RUnlock()
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

// staticHandler serves the build tree, injecting the reload client into
// HTML documents.
func (s *DevServer) staticHandler() http.Handler {
	root := http.Dir(s.cfg.BuildDir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if !strings.EqualFold(path.Ext(name), ".html") && !strings.EqualFold(path.Ext(name), ".htm") {
			files.ServeHTTP(w, r)
			return
		}

		f, err := root.Open(name)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "cannot open file", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}

		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "cannot read file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(InjectScript(data, reloadScript))
	})
}

// handleHealth returns the server health status for health checks
func (s *DevServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "healthy"
	buildErrors := len(s.env.Errors.GetErrors())
	if buildErrors > 0 {
		status = "build_error"
	}

	hits, misses := s.env.Cache.Stats()
	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   version.Get().Short(),
		"clients":   s.hub.Clients(),
		"errors":    buildErrors,
		"root":      s.cfg.BuildDir,
		"cache": map[string]interface{}{
			"entries": s.env.Cache.Len(),
			"hits":    hits,
			"misses":  misses,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "cannot encode health response")
	}
}

// handleErrors renders the collected build errors as a standalone page.
func (s *DevServer) handleErrors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	overlay := s.env.Errors.ErrorOverlay()
	if overlay == "" {
		overlay = "<p>No build errors.</p>"
	}
	_, _ = fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>Build errors</title></head><body>%s</body></html>", overlay)
}

func (s *DevServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if !strings.HasPrefix(r.URL.Path, routePrefix) {
			s.logger.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		}
	})
}

func (s *DevServer) openBrowser(target string) {
	time.Sleep(100 * time.Millisecond)

	err := validation.ValidateURL(target)
	if err != nil {
		s.logger.Warn(context.Background(), err, "refusing to open browser", "url", target)
		return
	}

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", target).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	case "darwin":
		err = exec.Command("open", target).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	if err != nil {
		s.logger.Warn(context.Background(), err, "failed to open browser")
	}
}
