package router

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/adapter/api/handler"
	"coursebay/internal/adapter/api/middleware"
)

func SetupGroupChatRouter(e *echo.Echo, groupChatHandler *handler.GroupChatHandler, authMiddleware *middleware.AuthMiddleware) {
	g := e.Group("/v1")
	g.Use(authMiddleware.Authenticate)
	g.Use(middleware.GeneralRateLimit())

	g.POST("/create-group-chat", groupChatHandler.CreateGroupChat)
	g.POST("/send-group-message/:groupId", groupChatHandler.SendGroupMessage, middleware.SendRateLimit())
	g.GET("/group-messages/:groupId", groupChatHandler.GetGroupMessages)

	g.POST("/add-group-member/:groupId", groupChatHandler.AddGroupMember)
	g.POST("/add-group-members/:groupId", groupChatHandler.AddGroupMembers)
	g.POST("/remove-group-member/:groupId", groupChatHandler.RemoveGroupMember)
	g.POST("/update-group-admins/:groupId", groupChatHandler.UpdateGroupAdmins)
	g.POST("/leave-group/:groupId", groupChatHandler.LeaveGroup)
	g.DELETE("/delete-group/:groupId", groupChatHandler.DeleteGroup)
}
