package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"paperledger/internal/handler"
	"paperledger/internal/middleware"
	"paperledger/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *zap.Logger,
	allowedOrigins []string,
	authSvc service.AuthService,
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(authSvc))

	docs := v1.Group("/documents")
	docs.GET("/:id", docH.Get)
	docs.POST("/:id/process", docH.Process)
	docs.POST("/:id/reprocess", docH.Reprocess)

	return r
}
