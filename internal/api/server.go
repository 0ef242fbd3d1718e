// Package api serves the bot catalog and the database session endpoints
// over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/catalog"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/config"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/engine"
	"github.com/ML-Enthusiast12/Bot-And-Database-API/internal/ws"
)

// Version is reported by the root banner.
const Version = "1.0.0"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 10 << 20

// Server is the HTTP API server.
type Server struct {
	engine  *engine.Engine
	catalog *catalog.Catalog
	hub     *ws.Hub
	logger  *slog.Logger
	cfg     config.ServerConfig
	server  *http.Server
}

// Option configures the API server.
type Option func(*Server)

// WithHub enables the /ws event stream.
func WithHub(hub *ws.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithCatalog sets the bot catalog served by /getbotsinfo.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// New creates a new API server.
func New(eng *engine.Engine, logger *slog.Logger, cfg config.ServerConfig, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: eng,
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog, _ = catalog.Parse([]byte("bots: []"), "")
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var handler http.Handler = mux
	if !s.cfg.DisableCORS {
		handler = corsMiddleware(s.cfg.AllowedOrigins, handler)
	}
	handler = recoverer(s.logger, handler)
	return requestLogger(s.logger, handler)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after a graceful Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting api server",
		"addr", ln.Addr().String(),
		"websocket", s.hub != nil,
		"cors", !s.cfg.DisableCORS,
	)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /getbotsinfo", s.handleGetBots)
	mux.HandleFunc("POST /connectDB", s.handleConnect)
	mux.HandleFunc("POST /setsessionSchema", s.handleSetSessionSchema)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /session/{session_id}/schema", s.handleGetSessionSchema)
	mux.HandleFunc("DELETE /session/{session_id}", s.handleDeleteSession)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /example/connectDB", s.handleExampleConnect)
	mux.HandleFunc("GET /example/setsessionSchema", s.handleExampleSetSchema)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)
	}

	mux.HandleFunc("/", s.handleNotFound)
}
