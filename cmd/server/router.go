package main

import (
	apperrors "github.com/ahump20/lone-star-legends-championship-sub006/internal/errors"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/monitoring"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/security"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ahump20/lone-star-legends-championship-sub006/docs"
)

const scorePath = "/v1/score"

func (a *app) router() *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	if a.compression != nil {
		r.Use(a.compression.Handler())
	}
	r.Use(apperrors.ErrorHandler())

	secCfg := security.DefaultSecurityConfig()
	secCfg.AllowedOrigins = a.cfg.Security.AllowedOrigins
	secCfg.EnableHSTS = a.cfg.Security.EnableHSTS
	secCfg.RequestTimeout = a.cfg.Server.RequestTimeout
	secCfg.MaxBodyBytes = a.cfg.Server.MaxBodyBytes

	r.Use(security.SecurityHeadersMiddleware(secCfg.EnableHSTS))
	r.Use(security.CORSMiddleware(secCfg))

	// Operational endpoints
	r.GET("/health", a.handleHealth)
	r.GET("/metrics", a.handleMetrics)
	r.GET("/metrics/prometheus", gin.WrapH(a.metrics.Prometheus().Handler()))
	r.GET("/cache/stats", a.handleCacheStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")
	v1.Use(security.RequestTimeout(secCfg.RequestTimeout))
	if a.limiter != nil {
		v1.Use(a.limiter.IPRateLimitMiddleware())
	}

	v1.GET("/dimensions", a.handleDimensions)
	v1.GET("/cohorts", a.handleCohorts)
	v1.GET("/cohorts/:key", a.handleCohort)
	v1.GET("/calibration", a.handleCalibration)

	scoring := v1.Group("")
	scoring.Use(security.ValidateContentType(), security.MaxBodySize(secCfg.MaxBodyBytes))
	if a.responseCache != nil {
		scoring.Use(a.responseCache.Middleware(scorePath, a.metrics, a.logger.Logger))
	}
	scoring.POST("/score", a.handleScore)
	scoring.POST("/explain", a.handleExplain)

	return r
}
