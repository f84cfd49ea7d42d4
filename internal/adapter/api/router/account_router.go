package router

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/adapter/api/handler"
	"coursebay/internal/adapter/api/middleware"
)

func SetupAccountRouter(e *echo.Echo, accountHandler *handler.AccountHandler, authMiddleware *middleware.AuthMiddleware) {
	g := e.Group("/v1")
	g.Use(authMiddleware.Authenticate)

	g.DELETE("/account/messages", accountHandler.PurgeMessages)
}
