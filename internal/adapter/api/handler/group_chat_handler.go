package handler

import (
	"github.com/labstack/echo/v4"

	"coursebay/internal/usecase"
	"coursebay/pkg/response"
	"coursebay/pkg/utils"
)

type GroupChatHandler struct {
	groupChatUseCase *usecase.GroupChatUseCase
}

func NewGroupChatHandler(groupChatUseCase *usecase.GroupChatUseCase) *GroupChatHandler {
	return &GroupChatHandler{
		groupChatUseCase: groupChatUseCase,
	}
}

type createGroupChatRequest struct {
	Name    string   `json:"name" validate:"required"`
	Members []string `json:"members" validate:"required,min=1,max=49,dive,required"`
}

func (h *GroupChatHandler) CreateGroupChat(c echo.Context) error {
	var req createGroupChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	group, err := h.groupChatUseCase.CreateGroupChat(c.Request().Context(), uid, req.Name, req.Members)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, group)
}

func (h *GroupChatHandler) SendGroupMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	message, err := h.groupChatUseCase.SendGroupMessage(c.Request().Context(), usecase.SendGroupMessageInput{
		SenderID: uid,
		GroupID:  c.Param("groupId"),
		Content:  req.Content,
		Media:    req.toInputs(),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *GroupChatHandler) GetGroupMessages(c echo.Context) error {
	uid := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.groupChatUseCase.GetGroupMessages(c.Request().Context(), uid, c.Param("groupId"), pagination.Limit, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, pagination.Limit, pagination.Offset)
}

type addMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

func (h *GroupChatHandler) AddGroupMember(c echo.Context) error {
	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	group, err := h.groupChatUseCase.AddMembers(c.Request().Context(), uid, c.Param("groupId"), []string{req.MemberID})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, group)
}

type addMembersRequest struct {
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,required"`
}

func (h *GroupChatHandler) AddGroupMembers(c echo.Context) error {
	var req addMembersRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	group, err := h.groupChatUseCase.AddMembers(c.Request().Context(), uid, c.Param("groupId"), req.MemberIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, group)
}

func (h *GroupChatHandler) RemoveGroupMember(c echo.Context) error {
	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	if err := h.groupChatUseCase.RemoveMember(c.Request().Context(), uid, c.Param("groupId"), req.MemberID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Member removed"})
}

type updateAdminsRequest struct {
	AdminIDs []string `json:"admin_ids" validate:"required,min=1,dive,required"`
}

func (h *GroupChatHandler) UpdateGroupAdmins(c echo.Context) error {
	var req updateAdminsRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	group, err := h.groupChatUseCase.UpdateAdmins(c.Request().Context(), uid, c.Param("groupId"), req.AdminIDs)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, group)
}

func (h *GroupChatHandler) LeaveGroup(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.groupChatUseCase.LeaveGroup(c.Request().Context(), uid, c.Param("groupId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Left group"})
}

func (h *GroupChatHandler) DeleteGroup(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.groupChatUseCase.DeleteGroup(c.Request().Context(), uid, c.Param("groupId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Group deleted"})
}
