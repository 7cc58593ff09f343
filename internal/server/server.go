package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/store"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"

	documentCacheControl = "public, max-age=300"
	assetCacheControl    = "public, max-age=31536000, immutable"
)

// Config configures the read-only catalog server.
type Config struct {
	Addr      string
	OutputDir string
	Store     *store.Store
	Version   string
	AccessLog LoggingConfig
}

// Server serves the derived documents, the stored images and /metrics.
type Server struct {
	config  Config
	router  *mux.Router
	started time.Time
}

// New creates a Server and registers its routes.
func New(config Config) *Server {
	s := &Server{config: config, started: time.Now()}
	s.router = s.routes()
	return s
}

// Router exposes the route table, mainly for startup logging.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	r.HandleFunc("/api/v1/{path:.+\\.json}", s.document).Methods(http.MethodGet, http.MethodHead).Name("document")
	r.HandleFunc("/"+store.ImagesDir+"/{category}/{file}", s.asset(s.config.Store.ImagePath)).
		Methods(http.MethodGet, http.MethodHead).Name("image")
	r.HandleFunc("/"+store.ThumbnailsDir+"/{category}/{file}", s.asset(s.config.Store.ThumbnailPath)).
		Methods(http.MethodGet, http.MethodHead).Name("thumbnail")

	return r
}

// Handler returns the router wrapped in access logging and compression.
func (s *Server) Handler() http.Handler {
	return Logger(s.config.AccessLog)(Compression(DefaultCompressionConfig())(s.router))
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Ready     bool   `json:"ready"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	BuiltAt   string `json:"builtAt,omitempty"`
	GoVersion string `json:"goVersion"`
}

// health reports ready once a catalog has been built into the output dir.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    statusStarting,
		Version:   s.config.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		GoVersion: runtime.Version(),
	}

	if info, err := os.Stat(filepath.Join(s.config.OutputDir, "all.json")); err == nil {
		resp.Status = statusHealthy
		resp.Ready = true
		resp.BuiltAt = info.ModTime().UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn("Failed to encode health response: %v", err)
	}
}

// document serves one file of the derived tree. The cleaned path can never
// leave the output dir.
func (s *Server) document(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + mux.Vars(r)["path"])
	w.Header().Set("Cache-Control", documentCacheControl)
	http.ServeFile(w, r, filepath.Join(s.config.OutputDir, filepath.FromSlash(rel)))
}

// asset serves a stored image or thumbnail. Only canonical names inside a
// known category resolve; anything else is a 404 without touching the disk.
func (s *Server) asset(pathFor func(category string, seq int) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		category := vars["category"]
		stem, ok := strings.CutSuffix(vars["file"], store.ImageExt)
		if !ok || !store.IsCategory(category) {
			http.NotFound(w, r)
			return
		}
		seq, ok := store.ParseSequence(stem)
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", assetCacheControl)
		http.ServeFile(w, r, pathFor(category, seq))
	}
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.config.Addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
