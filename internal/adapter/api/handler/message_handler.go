package handler

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/domain/entity"
	"coursebay/internal/usecase"
	"coursebay/pkg/response"
	"coursebay/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type mediaItem struct {
	Data string `json:"data" validate:"required"`
	Type string `json:"type" validate:"required,oneof=image video"`
}

type sendMessageRequest struct {
	Content string      `json:"content"`
	Media   []mediaItem `json:"media" validate:"omitempty,max=4,dive"`
}

func (r *sendMessageRequest) toInputs() []usecase.MediaInput {
	var media []usecase.MediaInput
	for _, item := range r.Media {
		media = append(media, usecase.MediaInput{
			Data: item.Data,
			Kind: entity.MediaKind(item.Type),
		})
	}
	return media
}

// SendMessage sends a user-to-user direct message.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	return h.send(c, entity.Participant{
		ID:   c.Param("receiverId"),
		Kind: entity.KindUser,
	}, false)
}

// SendMessageToShop sends a user-to-shop direct message.
func (h *MessageHandler) SendMessageToShop(c echo.Context) error {
	return h.send(c, entity.Participant{
		ID:   c.Param("shopId"),
		Kind: entity.KindShop,
	}, false)
}

// ReplyToUser sends a message from the caller's shop to a user.
func (h *MessageHandler) ReplyToUser(c echo.Context) error {
	return h.send(c, entity.Participant{
		ID:   c.Param("userId"),
		Kind: entity.KindUser,
	}, true)
}

func (h *MessageHandler) send(c echo.Context, receiver entity.Participant, asShop bool) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	sender, err := h.messageUseCase.ResolveActor(ctx, uid, asShop)
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.SendMessage(ctx, usecase.SendMessageInput{
		Sender:   sender,
		Receiver: receiver,
		Content:  req.Content,
		Media:    req.toInputs(),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *MessageHandler) MarkMessageRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	message, err := h.messageUseCase.MarkMessageRead(c.Request().Context(), uid, c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, message)
}

func (h *MessageHandler) DeleteMessage(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.messageUseCase.DeleteMessage(c.Request().Context(), uid, c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Message deleted"})
}

// DeleteMessageForMe hides a message from the caller only.
func (h *MessageHandler) DeleteMessageForMe(c echo.Context) error {
	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	caller, err := h.messageUseCase.ResolveActor(ctx, uid, asShopParam(c))
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.messageUseCase.DeleteMessageForMe(ctx, caller, c.Param("messageId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Message hidden"})
}

func (h *MessageHandler) ArchiveConversation(c echo.Context) error {
	return h.setArchived(c, true)
}

func (h *MessageHandler) UnarchiveConversation(c echo.Context) error {
	return h.setArchived(c, false)
}

func (h *MessageHandler) setArchived(c echo.Context, archived bool) error {
	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	actor, err := h.messageUseCase.ResolveActor(ctx, uid, asShopParam(c))
	if err != nil {
		return response.Error(c, err)
	}

	counterpart := entity.Participant{ID: c.Param("userId"), Kind: entity.KindUser}
	if actor.Kind == entity.KindUser && c.QueryParam("kind") == "shop" {
		counterpart.Kind = entity.KindShop
	}

	if err := h.messageUseCase.SetArchived(ctx, actor, counterpart, archived); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"archived": archived})
}

func (h *MessageHandler) ListConversations(c echo.Context) error {
	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	actor, err := h.messageUseCase.ResolveActor(ctx, uid, asShopParam(c))
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	includeArchived := c.QueryParam("include_archived") == "true"

	conversations, total, err := h.messageUseCase.ListConversations(ctx, actor, includeArchived, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, conversations, total, pagination.Limit, pagination.Offset)
}

// ListMessages returns the caller's direct history with one counterpart.
func (h *MessageHandler) ListMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	actor, err := h.messageUseCase.ResolveActor(ctx, uid, asShopParam(c))
	if err != nil {
		return response.Error(c, err)
	}

	counterpart := entity.Participant{ID: c.Param("userId"), Kind: entity.KindUser}
	if actor.Kind == entity.KindUser && c.QueryParam("kind") == "shop" {
		counterpart.Kind = entity.KindShop
	}

	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.messageUseCase.ListMessages(ctx, actor, counterpart, pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, pagination.Limit, pagination.Offset)
}

// BlockUser adds a user to the caller's shop block list.
func (h *MessageHandler) BlockUser(c echo.Context) error {
	return h.setBlocked(c, true)
}

func (h *MessageHandler) UnblockUser(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *MessageHandler) setBlocked(c echo.Context, blocked bool) error {
	uid := c.Get("uid").(string)

	if err := h.messageUseCase.SetShopBlock(c.Request().Context(), uid, c.Param("userId"), blocked); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"blocked": blocked})
}

func asShopParam(c echo.Context) bool {
	return c.QueryParam("as") == "shop"
}
