package routes

import (
	"fmt"
	"net/http"
	"time"

	"user-registration/internal/config"
	"user-registration/internal/delivery/http/handler"
	"user-registration/internal/logger"
	"user-registration/internal/middleware"
	"user-registration/internal/usecase/account"
	"user-registration/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health() error
}

func SetupRoutes(cfg *config.Config, db HealthChecker, service *account.Service, registry *prometheus.Registry) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, metrics, security headers, CORS, request size limit
	router.Use(recovery(!cfg.IsProduction()))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(middleware.NewHTTPMetrics(registry)))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		timestamp := time.Now().UTC().Format(time.RFC3339)
		if err := db.Health(); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"message":   "database connection failed",
				"timestamp": timestamp,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"message":   "server is running",
			"timestamp": timestamp,
		})
	})

	accountHandler := handler.NewAccountHandler(service, !cfg.IsProduction())
	accountHandler.RegisterRoutes(api)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "resource not found",
			"path":    c.Request.URL.Path,
		})
	})

	logger.Info("All routes initialized")
	return router
}

func recovery(exposeErrors bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logger.Error("Recovered from panic",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.InternalErrorResponse(c, http.StatusInternalServerError, "internal server error", err, exposeErrors)
		c.Abort()
	})
}
