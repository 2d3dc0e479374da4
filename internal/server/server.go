package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"runtime"
	"strings"
	"time"

	"static-gallery/internal/lock"
	"static-gallery/internal/logging"
	"static-gallery/internal/metrics"
	"static-gallery/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	healthPath  = "/healthz"
	metricsPath = "/metrics"

	shutdownTimeout = 10 * time.Second
)

// Config configures the preview server.
type Config struct {
	Root    string
	Address string
	// StatsInterval is how often gallery gauges are refreshed. Zero uses one minute.
	StatsInterval time.Duration
}

// Server serves a built gallery for local preview.
type Server struct {
	config  Config
	router  *mux.Router
	stats   *GalleryStats
	started time.Time
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
	Root         string `json:"root"`
}

// New builds the router for root.
func New(config Config) *Server {
	if config.StatsInterval <= 0 {
		config.StatsInterval = time.Minute
	}
	s := &Server{
		config:  config,
		stats:   NewGalleryStats(config.Root),
		started: time.Now(),
	}

	r := mux.NewRouter()
	r.Use(accessLog, instrument)
	r.HandleFunc(healthPath, s.health).Methods(http.MethodGet, http.MethodHead).Name("health")
	r.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.PathPrefix("/").Handler(s.files()).Methods(http.MethodGet, http.MethodHead).Name("gallery")
	s.router = r
	return s
}

// Router returns the HTTP handler of the server.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		Root:         s.config.Root,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error("Failed to encode health response: %v", err)
	}
}

// files serves the gallery tree. The build lock sentinel is hidden; the
// dot-directories holding thumbnails and caches are served because pages
// link to them.
func (s *Server) files() http.Handler {
	fileServer := http.FileServer(http.Dir(s.config.Root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == lock.FileName || strings.Contains(r.URL.Path, "/.write-test") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	collectCtx, stopCollector := context.WithCancel(ctx)
	defer stopCollector()
	go metrics.NewCollector(s.stats, s.config.StatsInterval).Run(collectCtx)

	startup.LogHTTPRoutes(s.router)

	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Address:         s.config.Address,
		Root:            s.config.Root,
		StartupDuration: time.Since(s.started),
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
	}

	startup.LogShutdownInitiated(context.Cause(ctx).Error())
	startup.LogShutdownStep("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down preview server: %w", err)
	}
	startup.LogShutdownStepComplete("HTTP server stopped")
	startup.LogShutdownComplete()
	return nil
}
