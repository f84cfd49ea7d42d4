package handler

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/usecase"
	"coursebay/pkg/response"
)

// AccountHandler exposes the messaging-side purge that runs when an account
// is closed. The caller purges their own footprint; shop owners pass
// `?as=shop` to purge the shop identity instead.
type AccountHandler struct {
	accountUseCase *usecase.AccountUseCase
	messageUseCase *usecase.MessageUseCase
}

func NewAccountHandler(accountUseCase *usecase.AccountUseCase, messageUseCase *usecase.MessageUseCase) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		messageUseCase: messageUseCase,
	}
}

func (h *AccountHandler) PurgeMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	ctx := c.Request().Context()

	actor, err := h.messageUseCase.ResolveActor(ctx, uid, c.QueryParam("as") == "shop")
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.accountUseCase.PurgeParticipant(ctx, actor); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Messaging data purged"})
}
