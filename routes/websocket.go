package routes

import (
	"tasknest/tasknest/middleware"
	"tasknest/tasknest/services"

	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes exposes the live task event feed. The same
// authenticator gates the upgrade; browsers cannot set headers on
// WebSocket requests, so the token may arrive as a query parameter.
func RegisterWebSocketRoutes(router *gin.Engine, wsService services.WebSocketServiceInterface, authenticator services.Authenticator) {
	wsGroup := router.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware(authenticator))
	{
		wsGroup.GET("", func(c *gin.Context) {
			wsService.HandleConnection(c)
		})
	}
}
