package adapters

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/villan7667/sharing-app/internal/app"
	"github.com/villan7667/sharing-app/internal/config"
	"github.com/villan7667/sharing-app/internal/domain"
)

// SetupRouter wires HTTP routes with the relay and transport.
// - GET /healthz                liveness probe
// - GET /api/rooms             active rooms with member counts
// - GET /api/rooms/:code       single room; 404 when absent (absent == empty)
// - GET /api/stats             transport counters
// - GET cfg.WSPath             websocket upgrade
func SetupRouter(ctx context.Context, cfg *config.Config, relay *app.Relay, stats *Stats) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "signaling relay is healthy")
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": relay.Registry().List()})
	})

	api.GET("/rooms/:code", func(c *gin.Context) {
		info, ok := relay.Registry().Info(domain.RoomCode(c.Param("code")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	api.GET("/stats", stats.Handler())

	ctl := NewWSController(cfg, relay, stats)
	r.GET(cfg.WSPath, func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.router").Str("ws_path", cfg.WSPath).Msg("router setup")
	return r
}
