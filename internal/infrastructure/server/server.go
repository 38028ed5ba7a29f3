package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/fileserver/internal/api/http"
	"github.com/GriffinCanCode/fileserver/internal/api/middleware"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/config"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/logging"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fileserver/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/fileserver/internal/providers/auth"
	"github.com/GriffinCanCode/fileserver/internal/providers/filesystem"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	handler    http.Handler
	httpServer *http.Server
	files      *filesystem.Provider
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance. The files root is created if it
// does not exist.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing file server",
		zap.String("addr", cfg.Address()),
		zap.String("environment", cfg.Files.Environment),
		zap.String("base_dir", cfg.Files.BaseDir),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("fileserver", logger.Named("trace"))

	files, err := filesystem.NewProvider(cfg.Files.BaseDir, filesystem.Options{
		Logger:           logger.Named("files"),
		Observer:         metrics,
		SniffContent:     cfg.Files.SniffContent,
		SearchMaxResults: cfg.Files.SearchMaxResults,
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("failed to open files root: %w", err)
	}
	logger.Info("Serving files", zap.String("root", files.Root()))

	gate := auth.NewGate(cfg.Files.APIKey, cfg.Files.APIKeyBcrypt)
	if !gate.Configured() {
		logger.Warn("API_KEY is not set; create and delete will fail with a configuration error")
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.SecurityHeaders())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowOrigins
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(files, gate, apihttp.Info{
		Environment:    cfg.Files.Environment,
		FilesDirectory: cfg.Files.BaseDir,
	}, logger.Named("http"))
	apihttp.RegisterRoutes(router, handlers, middleware.RequireToken(gate, metrics, logger.Named("auth")))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api/v1/metrics/summary", apihttp.MetricsSummaryHandler(metrics))

	var handler http.Handler = router
	if cfg.Compression.Enabled {
		handler, err = middleware.Compress(router)
		if err != nil {
			tracer.Close()
			return nil, err
		}
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		handler: handler,
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		files:   files,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Root returns the canonical files root.
func (s *Server) Root() string {
	return s.files.Root()
}

// Run starts the HTTP server and blocks until it stops. A graceful shutdown
// is not reported as an error.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close gracefully shuts down the server within the configured timeout.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		err = fmt.Errorf("failed to shut down http server: %w", err)
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	return err
}
