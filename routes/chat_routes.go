package routes

import (
	handlers "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"
	"tripmate/internal/services"
	"tripmate/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes sets up the chat history route
func SetupChatRoutes(r *gin.RouterGroup, chatHandler *handlers.ChatHandler, authService services.AuthService) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthRequired(authService))
	{
		chat.GET("/:trip_id", chatHandler.GetChatHistory)
	}
}

// SetupWebSocketRoutes mounts the realtime relay. Connections are not
// authenticated at upgrade; each send_message carries its own token.
func SetupWebSocketRoutes(r *gin.Engine, path string, wsHandler *websocket.Handler) {
	r.GET(path, wsHandler.HandleWebSocket)
}
