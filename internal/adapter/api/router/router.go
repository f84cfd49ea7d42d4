package router

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/adapter/api/handler"
	"coursebay/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	messageHandler *handler.MessageHandler,
	groupChatHandler *handler.GroupChatHandler,
	accountHandler *handler.AccountHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupMessageRouter(e, messageHandler, authMiddleware)
	SetupGroupChatRouter(e, groupChatHandler, authMiddleware)
	SetupAccountRouter(e, accountHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler, authMiddleware)
	SetupHealthRouter(e, healthHandler)
}
