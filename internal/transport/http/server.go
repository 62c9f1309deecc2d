package http

import (
	"path/filepath"

	"github.com/gin-gonic/gin"

	"chatrelay/internal/bootstrap"
	"chatrelay/internal/transport/http/handler"
	"chatrelay/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	chatHandler := handler.NewChatHandler(app.ChatService)
	conversationHandler := handler.NewConversationHandler(app.ConversationService)

	router.StaticFile("/", filepath.Join(app.Config.App.StaticDir, "index.html"))
	router.GET("/healthz", healthHandler.Check)
	router.POST("/chat", chatHandler.Chat)

	conversations := router.Group("/api/conversations")
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id", conversationHandler.Messages)
	conversations.DELETE("/:id", conversationHandler.Delete)
	conversations.POST("/:id/rename", conversationHandler.Rename)

	return router
}
