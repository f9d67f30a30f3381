package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ajbozarth/enterprise-gateway/endpoint"
	"github.com/ajbozarth/enterprise-gateway/kernel"
	"github.com/ajbozarth/enterprise-gateway/sources"
)

// Config configures a gateway server.
type Config struct {
	// Pool leases kernels for endpoint execution.
	// Required.
	Pool *kernel.Pool

	// Endpoints are the paths the gateway exposes.
	// Required, at least one.
	Endpoints []sources.Endpoint

	// Preamble is optional setup code submitted before every request
	// execution.
	Preamble string

	// ExecutionTimeout bounds each request's wait for the kernel to
	// report idle. Zero applies the bridge default.
	ExecutionTimeout time.Duration

	// Authorizer guards the endpoints. Defaults to AllowAll.
	Authorizer Authorizer

	// Cors is attached to every endpoint response.
	Cors CorsPolicy

	// SourcePath, when set, is a file served verbatim at /_api/source
	// so clients can download the artifact behind the endpoints.
	SourcePath string

	// Logger is an optional logger. Defaults to discarding.
	Logger *slog.Logger
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Pool == nil {
		return fmt.Errorf("gateway configuration: Pool is required")
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("gateway configuration: at least one endpoint is required")
	}
	for i := range c.Endpoints {
		if err := c.Endpoints[i].Validate(); err != nil {
			return fmt.Errorf("gateway configuration: %w", err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Authorizer == nil {
		c.Authorizer = AllowAll{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Server assembles the HTTP surface: one execution handler per
// configured endpoint plus the gateway's own small API.
type Server struct {
	router  chi.Router
	pool    *kernel.Pool
	bridges []*endpoint.Bridge
	logger  *slog.Logger
}

// New creates a gateway server from the configuration.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	s := &Server{
		router: chi.NewRouter(),
		pool:   cfg.Pool,
		logger: cfg.Logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(cfg.Logger))
	s.router.Use(applyCors(cfg.Cors))
	s.router.Use(requireAuth(cfg.Authorizer))

	for _, ep := range cfg.Endpoints {
		bridge, err := endpoint.NewBridge(endpoint.BridgeConfig{
			Pool:             cfg.Pool,
			Translator:       endpoint.NewTranslator(ep.Methods),
			Preamble:         cfg.Preamble,
			ExecutionTimeout: cfg.ExecutionTimeout,
			Logger:           cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		s.bridges = append(s.bridges, bridge)
		s.router.Handle(sources.ParameterizePath(ep.Path), endpoint.NewHandler(bridge, cfg.Logger))
	}

	s.router.Get("/_api/activity", s.handleActivity)
	if cfg.SourcePath != "" {
		src := cfg.SourcePath
		s.router.Get("/_api/source", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, src)
		})
	}

	return s, nil
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// activity is the gateway's point-in-time health snapshot.
type activity struct {
	Pool     kernel.Stats `json:"pool"`
	Overflow uint64       `json:"overflow_messages"`
}

// handleActivity reports pool state and anomaly counters.
func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	var overflow uint64
	for _, b := range s.bridges {
		overflow += b.Overflow()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(activity{
		Pool:     s.pool.Stats(),
		Overflow: overflow,
	})
}

// requestLogger logs each completed request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
