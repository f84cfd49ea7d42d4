package router

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/adapter/api/handler"
	"coursebay/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	g := e.Group("/v1")
	g.Use(authMiddleware.Authenticate)
	g.Use(middleware.GeneralRateLimit())

	// Direct sends
	g.POST("/send-message/:receiverId", messageHandler.SendMessage, middleware.SendRateLimit())
	g.POST("/send-message-to-shop/:shopId", messageHandler.SendMessageToShop, middleware.SendRateLimit())
	g.POST("/reply-to-user/:userId", messageHandler.ReplyToUser, middleware.SendRateLimit())

	// Message state
	g.PUT("/mark-message-read/:messageId", messageHandler.MarkMessageRead)
	g.DELETE("/delete-message/:messageId", messageHandler.DeleteMessage)
	g.DELETE("/delete-message-for-me/:messageId", messageHandler.DeleteMessageForMe)

	// Conversation state
	g.PUT("/archive-conversation/:userId", messageHandler.ArchiveConversation)
	g.PUT("/unarchive-conversation/:userId", messageHandler.UnarchiveConversation)
	g.GET("/conversations", messageHandler.ListConversations)
	g.GET("/conversation-messages/:userId", messageHandler.ListMessages)

	// Shop block list
	g.POST("/block-user/:userId", messageHandler.BlockUser)
	g.POST("/unblock-user/:userId", messageHandler.UnblockUser)
}
