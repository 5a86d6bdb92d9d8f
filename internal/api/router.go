package api

import (
	v1 "github.com/flexprice/taxledger/internal/api/v1"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/rest/middleware"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health *v1.HealthHandler
	Tax    *v1.TaxHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.TenantMiddleware, middleware.SentryScopeMiddleware)

	tax := v1Group.Group("/tax")
	{
		tax.POST("/compute", handlers.Tax.ComputeTax)
		tax.POST("/compute/batch", handlers.Tax.ComputeTaxBatch)
		tax.GET("/taxations", handlers.Tax.ListTaxations)
	}

	logger.Debugw("registered routes", "routes", len(router.Routes()))
	return router
}
