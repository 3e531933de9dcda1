// Package api serves Canada in Data over HTTP: the rendered pages, chart
// SVGs, social previews, raw data files, a JSON API and a WebSocket that
// tells open pages to reload when the data directory changes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/canviz/canadaindata/internal/analysis/inflation"
	"github.com/canviz/canadaindata/internal/config"
	"github.com/canviz/canadaindata/internal/dataset"
	"github.com/canviz/canadaindata/internal/site"
)

// Options configures a Server.
type Options struct {
	Config     *config.Config
	ConfigFile string // reported by /api/v1/config
	Site       *site.Site
	News       site.Headlines // optional
	Static     fs.FS          // served under /static/
	Logger     *zap.Logger
	Version    string
}

// Server is the HTTP server.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	configFile string
	site       *site.Site
	charts     *site.Charts
	news       site.Headlines
	static     fs.FS
	hub        *WSHub
	logger     *zap.Logger
	version    string
	started    time.Time
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}
	if opts.Site == nil {
		return nil, errors.New("api: site is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	srv := &Server{
		cfg:        opts.Config,
		configFile: opts.ConfigFile,
		site:       opts.Site,
		charts:     opts.Site.Charts(),
		news:       opts.News,
		static:     opts.Static,
		hub:        NewWSHub(logger.Named("ws")),
		logger:     logger.Named("api"),
		version:    version,
		started:    time.Now(),
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the reload hub.
func (s *Server) Hub() *WSHub {
	return s.hub
}

// DataChanged drops cached charts derived from resource and tells open
// pages to reload. It is the dataset watcher callback.
func (s *Server) DataChanged(resource string) {
	s.charts.InvalidateResource(resource)
	s.logger.Info("data changed", zap.String("resource", resource))
	s.hub.Reload(resource)
}

// ListenAndServe runs the server until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The websocket outlives any request timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/health", s.handleHealth)
			r.Get("/topics", s.handleTopics)
			r.Get("/config", s.handleGetConfig)
			r.Get("/news", s.handleNews)

			r.Get("/cpi", s.handleCPI)

			r.Route("/inflation", func(r chi.Router) {
				r.Get("/series", s.handleInflationSeries)
				r.Get("/contributions", s.handleContributions)
				r.Get("/presets", s.handlePresets)
			})

			r.Route("/grain", func(r chi.Router) {
				r.Get("/production", s.handleGrainProduction)
				r.Get("/area", s.handleGrainArea)
				r.Get("/components", s.handleGrainComponents)
				r.Get("/decomposition", s.handleDecomposition)
				r.Get("/statistics", s.handleStatistics)
				r.Get("/selection", s.handleSelection)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/charts/{name}.svg", s.handleChart)
		r.Get("/previews/{name}.png", s.handlePreview)
		r.Get("/fragments/inflation-contributions", s.handleContributionsFragment)
		r.Get("/data/*", s.handleData)
		r.Get("/feed.xml", s.handleFeed)
		if s.static != nil {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.static))))
		}

		r.Get("/", s.handlePage)
		r.Get("/topics", s.handlePage)
		r.Get("/topics/{slug}", s.handlePage)
		r.NotFound(s.handlePage)
	})

	return r
}

// ============================================================
// Response envelope
// ============================================================

// APIResponse is the standard API response envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Source  string `json:"source"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"ws_clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:  "ok",
			Version: s.version,
			Source:  s.charts.Store().Source().Name(),
			Uptime:  time.Since(s.started).Round(time.Second).String(),
			Clients: s.hub.ClientCount(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// StatusFor maps a data loading error to an HTTP status: missing
// resources are 404, malformed ones 502 and anything else 500.
func StatusFor(err error) int {
	var perr *dataset.ParseError
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inflation.ErrNoSeries), errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeDataError logs err and writes the mapped envelope.
func (s *Server) writeDataError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	s.logger.Warn("request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, status, err.Error())
}

// respond writes v, or the mapped error when err is set.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeDataError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
}
