package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oshokin/slope-guard/internal/api/ws"
	"github.com/oshokin/slope-guard/internal/auth"
)

// NewRouter assembles the full HTTP surface: the websocket endpoint for
// field devices, the admin API, and the health and metrics endpoints.
// When tokenSecret is non-empty, the admin API requires a bearer token.
func NewRouter(handler *Handler, socket *ws.Handler, tokenSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", socket.Handle)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if tokenSecret != "" {
		api.Use(auth.Middleware(tokenSecret))
	}

	api.POST("/alerts", handler.CreateAlert)
	api.POST("/scenarios", handler.CreateScenario)
	api.GET("/alerts/active", handler.ActiveAlerts)
	api.GET("/devices", handler.DeviceCounts)

	return router
}
