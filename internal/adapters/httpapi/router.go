// Package httpapi serves the bridge's diagnostics surface: health, status,
// the seat directory, and Prometheus metrics. It is read-only and optional.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/bridge"
	"github.com/showctl/dicentis-osc-bridge/internal/config"
)

func SetupRouter(cfg *config.Config, b *bridge.Bridge, reg *prometheus.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, b.Status())
	})
	api.GET("/seats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"seats": b.Seats()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	log.Info().Str("module", "adapters.httpapi").Msg("router setup")
	return r
}
