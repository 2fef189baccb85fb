package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/pipestudio/api/middleware"
	"github.com/kbukum/pipestudio/component"
	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/observability"
	"github.com/kbukum/pipestudio/resilience"
)

// ComponentName is the registry name of the control API.
const ComponentName = "api"

// Server is the control API HTTP server. It speaks HTTP/1.1 and cleartext
// HTTP/2 on the same port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     config.ServerConfig
	log        *logger.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a Server with the standard middleware applied. Routes are
// added with RegisterDefaultEndpoints and Mount.
func New(cfg config.ServerConfig, metrics *observability.HTTPMetrics, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.Get(ComponentName)
	}
	log = log.WithComponent(ComponentName)

	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Telemetry(metrics))
	engine.Use(middleware.BodySizeLimit(cfg.MaxBodyBytes))
	engine.Use(middleware.RequestLogger(log))

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(engine, h2s),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		config:     cfg,
		log:        log,
	}
}

// Engine returns the Gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler, including h2c negotiation.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// RegisterDefaultEndpoints registers /health and /version.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker HealthChecker) {
	s.engine.GET("/health", Health(serviceName, checker))
	s.engine.GET("/version", Version())
}

// Mount registers the studio routes of h under /api/v1. With an auth secret
// configured the whole group requires a bearer token; with a rate limit
// the mutating routes are limited per token subject or client IP.
func (s *Server) Mount(h *Handler) {
	v1 := s.engine.Group("/api/v1")
	if s.config.AuthSecret != "" {
		v1.Use(middleware.Auth(middleware.AuthConfig{
			TokenValidator: middleware.HMACValidator(s.config.AuthSecret),
		}))
	}

	var guard []gin.HandlerFunc
	if s.config.RateLimit > 0 {
		limiter := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{Rate: s.config.RateLimit})
		guard = append(guard, middleware.RateLimit(limiter, middleware.SubjectBasedKey))
	}
	h.Register(v1, guard...)
}

// Start binds the port and serves in the background. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("control api failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("Control API started", logger.Fields("addr", listener.Addr().String()))
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", logger.ErrorFields("shutdown", err))
		return fmt.Errorf("control api shutdown: %w", err)
	}
	s.log.Info("Control API shut down")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Name implements component.Component.
func (s *Server) Name() string { return ComponentName }

// Health implements component.Component.
func (s *Server) Health(context.Context) component.Health {
	h := component.Health{Name: ComponentName, Status: component.StatusHealthy}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		h.Status = component.StatusDegraded
		h.Message = "not listening"
	}
	return h
}

// Describe implements component.Describable.
func (s *Server) Describe() component.Description {
	details := s.httpServer.Addr
	if s.config.AuthSecret != "" {
		details += " (bearer auth)"
	}
	return component.Description{Name: "Control API", Type: "server", Details: details}
}

var (
	_ component.Component   = (*Server)(nil)
	_ component.Describable = (*Server)(nil)
)
