// Package server assembles the gin engine serving the stock API.
package server

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// NewRouter mounts every registrar under /api/v1.
func NewRouter(log logger.ZapLogger, registrars ...RouteRegistrar) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "stock-service",
		})
	})

	r.Use(requestLogger(log))

	api := r.Group("/api/v1")
	for _, reg := range registrars {
		reg.RegisterRoutes(api)
	}
	return r
}

func requestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
