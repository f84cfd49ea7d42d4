package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "coursebay/internal/infrastructure/websocket"
	"coursebay/internal/usecase"
	"coursebay/pkg/errors"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	messageUseCase *usecase.MessageUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, messageUseCase *usecase.MessageUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		messageUseCase: messageUseCase,
	}
}

// HandleWebSocket upgrades the connection and registers the caller's socket
// key. `?as=shop` connects as the caller's shop identity instead.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	actor, err := h.messageUseCase.ResolveActor(c.Request().Context(), uid, c.QueryParam("as") == "shop")
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(actor.SocketKey(), conn, 256)

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
