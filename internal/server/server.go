// Package server serves a built site for preview. Pages get a small client
// script that reloads them when the output changes and, when live search is
// on, drives the page's search box through a server-side search widget over
// a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/conneroisu/sitekit/internal/config"
	siteerrors "github.com/conneroisu/sitekit/internal/errors"
	"github.com/conneroisu/sitekit/internal/logging"
	"github.com/conneroisu/sitekit/internal/version"
	"github.com/conneroisu/sitekit/internal/watcher"
)

// Routes served under the reserved prefix.
const (
	ClientPath = "/_sitekit/search.js"
	SocketPath = "/_sitekit/ws"
	SearchPath = "/_sitekit/search"
)

// reloadDelay groups bursts of writes, such as a full rebuild, into one reload.
const reloadDelay = 200 * time.Millisecond

// Server is the preview server for one output directory.
type Server struct {
	config      *config.Config
	root        string
	logger      logging.Logger
	router      chi.Router
	hub         *hub
	httpServer  *http.Server
	watcher     *watcher.FileWatcher
	serverMutex sync.Mutex
}

// New creates a preview server for cfg.Build.OutputDir.
func New(cfg *config.Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	s := &Server{
		config: cfg,
		root:   cfg.Build.OutputDir,
		logger: logger,
		hub:    newHub(logger),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get(SocketPath, s.handleWebSocket)
	r.Get(ClientPath, s.handleClient)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			MaxAge:         300,
		}))
		r.Get("/health", s.handleHealth)
		r.Get(SearchPath, s.handleSearch)
	})

	r.Get("/*", s.handlePage)
	return r
}

// requestLogger logs each request at debug level through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Start serves until ctx is cancelled or the listener fails. File watching
// failures only disable live reload.
func (s *Server) Start(ctx context.Context) error {
	if err := s.startWatcher(ctx); err != nil {
		s.logger.Warn(ctx, err, "Live reload disabled")
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info(ctx, "Preview server listening", "url", "http://"+s.Addr(), "root", s.root)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return siteerrors.Wrap(err, siteerrors.ErrorTypeNetwork, siteerrors.CodeServeFailed, "preview server failed")
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the HTTP server, the watcher and every websocket session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()

	s.serverMutex.Lock()
	srv := s.httpServer
	fw := s.watcher
	s.watcher = nil
	s.serverMutex.Unlock()

	var errs []error
	if fw != nil {
		if err := fw.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, siteerrors.Wrap(err, siteerrors.ErrorTypeNetwork, siteerrors.CodeServeFailed, "failed to shut down preview server"))
		}
	}
	return siteerrors.Join(errs...)
}

func (s *Server) startWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(reloadDelay, s.logger)
	if err != nil {
		return err
	}
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddFilter(watcher.AssetFilter)
	fw.AddHandler(s.handleFileChange)

	if err := fw.AddRecursive(s.root); err != nil {
		fw.Stop()
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}

	s.serverMutex.Lock()
	s.watcher = fw
	s.serverMutex.Unlock()
	return nil
}

func (s *Server) handleFileChange(events []watcher.ChangeEvent) error {
	paths := make([]string, 0, len(events))
	for _, ev := range events {
		paths = append(paths, s.relative(ev.Path))
	}
	n := s.hub.broadcast(ReloadMessage{Type: "reload", Paths: paths, Timestamp: time.Now()})
	s.logger.Info(context.Background(), "Output changed, reloading clients", "files", len(paths), "clients", n)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Short(),
		"root":    s.root,
		"clients": s.hub.count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
