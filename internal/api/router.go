package api

import (
	"github.com/labstack/echo/v4"
	"github.com/victorivanov/chatsync/internal/gateway"
)

// Dependencies holds all handler instances for route wiring.
type Dependencies struct {
	Channels    *ChannelHandler
	Messages    *MessageHandler
	Consistency *ConsistencyHandler
	Gateway     *gateway.Manager
}

// SetupRouter registers all routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// WebSocket fan-out of membership-count and user-status topics
	e.GET("/gateway", deps.Gateway.HandleWebSocket)

	v1 := e.Group("/api/v1")

	v1.POST("/channels", deps.Channels.CreateChannel)
	v1.GET("/channels/:id", deps.Channels.GetChannel)
	v1.PATCH("/channels/:id", deps.Channels.UpdateChannel)
	v1.DELETE("/channels/:id", deps.Channels.DeleteChannel)
	v1.GET("/channels/:id/messages", deps.Messages.GetMessages)

	v1.POST("/consistency", deps.Consistency.RunConsistency)
}
