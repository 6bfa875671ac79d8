package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	inspectmw "github.com/vango-dev/reactive/pkg/middleware"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// Config configures the inspector.
type Config struct {
	// Address is the listen address used by Run (default ":7070").
	Address string

	// Logger receives request and stream logs. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Registerer receives the inspector's request metrics. If nil, requests
	// are not counted.
	Registerer prometheus.Registerer

	// CheckOrigin validates WebSocket origins. If nil, all origins are
	// accepted.
	CheckOrigin func(r *http.Request) bool

	// ReadHeaderTimeout bounds how long Run's server waits for headers.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default inspector configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":7070",
		Gatherer:          prometheus.DefaultGatherer,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		WriteTimeout:      5 * time.Second,
	}
}

// Server exposes a store over HTTP and WebSocket.
type Server struct {
	store    *reactive.Store
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	// clients are the live WebSocket streams, by client ID.
	clients map[string]*client
	mu      sync.RWMutex

	httpServer *http.Server
}

// New creates an inspector for store. Unset config fields take their
// defaults; config itself is left as it is.
func New(store *reactive.Store, config *Config) *Server {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	} else {
		c := *config
		config = &c
	}
	if config.Address == "" {
		config.Address = defaults.Address
	}
	if config.Gatherer == nil {
		config.Gatherer = defaults.Gatherer
	}
	if config.ReadHeaderTimeout == 0 {
		config.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	s := &Server{
		store:  store,
		config: config,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[string]*client),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.config.Registerer != nil {
		r.Use(inspectmw.Prometheus(inspectmw.WithRegistry(s.config.Registerer)))
	}
	r.Use(inspectmw.OpenTelemetry(inspectmw.WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/metrics"
	})))

	r.Get("/keys", s.handleList)
	r.Get("/keys/{key}", s.handleGet)
	r.Put("/keys/{key}", s.handleSet)
	r.Delete("/keys/{key}", s.handleDelete)
	r.Post("/trigger/{key}", s.handleTrigger)
	r.Get("/ws", s.handleStream)
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the inspector's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("inspector shutting down")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every stream and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.closeClients()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("inspector shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("inspector shutdown complete")
	return nil
}

// logRequests logs each request once it has been served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("inspector request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeJSON writes v with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("inspector encode failed", "error", err)
		http.Error(w, `{"error":"value is not JSON encodable"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
