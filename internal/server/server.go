// Package server wires configuration, logging, metrics, the pipeline
// library, and the HTTP/WebSocket handlers into one runnable process,
// following the teacher's infrastructure/server.Server shape.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/flowproc/pipeline/internal/api/http"
	"github.com/flowproc/pipeline/internal/api/middleware"
	"github.com/flowproc/pipeline/internal/infrastructure/config"
	"github.com/flowproc/pipeline/internal/infrastructure/monitoring"
	"github.com/flowproc/pipeline/internal/library"
	"github.com/flowproc/pipeline/internal/logging"
	"github.com/flowproc/pipeline/internal/ws"
)

// Server wraps the HTTP router and the dependencies it was built from.
type Server struct {
	router   *gin.Engine
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *Registry
}

// New builds a Server from cfg: loads the pipeline library, constructs
// handlers and routes, and returns a ready-to-Run instance.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing pipeline server",
		zap.String("addr", cfg.Server.Host+":"+cfg.Server.Port),
		zap.String("library_dir", cfg.Library.Dir),
	)

	metrics := monitoring.NewMetrics()

	specs, err := library.Load(cfg.Library.Dir, library.DefaultPattern)
	if err != nil {
		logger.Warn("some library pipelines failed to load", zap.Error(err))
	}
	logger.Info("loaded library pipelines", zap.Int("count", len(specs)))

	registry := NewRegistry(cfg.Engine.RunHistorySize)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	var tokenStore *middleware.TokenStore
	if len(cfg.Auth.Tokens) > 0 {
		tokenStore = middleware.NewTokenStore(cfg.Auth.Tokens...)
	}
	authorized := router.Group("/v1")
	authorized.Use(middleware.Auth(tokenStore))

	handlers := apihttp.NewHandlers(registry, metrics, specs, cfg.Engine.BreakerEnabled)
	wsHandler := ws.NewHandler(registry, metrics)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authorized.POST("/pipelines", handlers.CreatePipeline)
	authorized.GET("/pipelines/:id", handlers.GetPipeline)
	authorized.GET("/pipelines/:id/stream", wsHandler.HandleConnection)
	authorized.GET("/library", handlers.ListLibrary)
	authorized.POST("/library/:name/run", handlers.RunLibrary)

	logger.Info("server initialized")

	return &Server{
		router:   router,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
	}, nil
}

// Run blocks serving HTTP on the configured host:port.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close flushes the logger. There is no network connection held open
// outside of the router itself, unlike the teacher's gRPC client cleanup.
func (s *Server) Close() error {
	s.logger.Info("shutting down server")
	if err := s.logger.Sync(); err != nil {
		return fmt.Errorf("failed to sync logger: %w", err)
	}
	return nil
}
