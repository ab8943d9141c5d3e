package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/cache"
	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
	"github.com/oncokb/oncokb-transcript-sub003/internal/drugs"
	"github.com/oncokb/oncokb-transcript-sub003/internal/middleware"
	"github.com/oncokb/oncokb-transcript-sub003/internal/service"
	"github.com/oncokb/oncokb-transcript-sub003/pkg/external"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// Dependencies are the components the HTTP API serves. Drugs, DrugCache and
// HealthChecks may be nil.
type Dependencies struct {
	Service      *service.SubmissionService
	Drugs        drugs.Store
	DrugCache    *cache.DrugLookupCache
	HealthChecks map[external.ExternalServiceType]external.Pinger
	Logger       *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	router        *gin.Engine
	server        *http.Server
	deps          Dependencies
	logger        *logrus.Logger
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		router:        router,
		deps:          deps,
		logger:        logger,
	}

	server.setupRoutes()

	return server
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully within 30s.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		var err error
		if cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		evidence := v1.Group("/evidence")
		evidence.POST("/resolve", s.handleResolve)
		evidence.POST("/submit", s.handleSubmit)
		evidence.GET("/stream", s.handleStream)
		evidence.GET("/:uuid", s.handleGetLatest)
		evidence.GET("/:uuid/history", s.handleGetHistory)

		drugRoutes := v1.Group("/drugs")
		drugRoutes.GET("", s.handleListDrugs)
		drugRoutes.POST("", s.handleSaveDrug)
		drugRoutes.GET("/:uuid", s.handleGetDrug)
		drugRoutes.DELETE("/:uuid", s.handleDeleteDrug)
	}
}

// handleHealth pings every registered dependency.
func (s *Server) handleHealth(c *gin.Context) {
	status := domain.HealthStatus{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().UTC(),
	}

	if len(s.deps.HealthChecks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status.Services = make(map[string]string)
		for _, h := range external.CheckHealth(ctx, s.deps.HealthChecks, s.logger) {
			if h.Healthy {
				status.Services[string(h.Service)] = "healthy"
				continue
			}
			status.Status = "degraded"
			status.Services[string(h.Service)] = "unhealthy: " + h.Error
		}
	}

	if s.deps.Service != nil {
		counts, err := s.deps.Service.StatusCounts(c.Request.Context())
		switch {
		case err == nil:
			status.Submissions = counts
		case !errors.Is(err, service.ErrHistoryDisabled):
			s.logger.WithError(err).Warn("Failed to count submissions")
		}
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
