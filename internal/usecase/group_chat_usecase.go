package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/internal/domain/service"
	"coursebay/internal/infrastructure/ratelimit"
	ws "coursebay/internal/infrastructure/websocket"
	"coursebay/pkg/errors"
)

// GroupChatUseCase is the group fan-out engine: roster lifecycle, group
// sends, and the cascade that removes a group once it cannot hold a
// conversation anymore.
type GroupChatUseCase struct {
	groupRepo     repository.GroupChatRepository
	convRepo      repository.ConversationRepository
	messageRepo   repository.MessageRepository
	directory     repository.Directory
	media         service.MediaStore
	registry      SocketRegistry
	guards        *Guards
	rateLimiter   *ratelimit.RateLimiter
	uploadTimeout time.Duration
}

func NewGroupChatUseCase(
	groupRepo repository.GroupChatRepository,
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	directory repository.Directory,
	media service.MediaStore,
	registry SocketRegistry,
	guards *Guards,
	uploadTimeout time.Duration,
) *GroupChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &GroupChatUseCase{
		groupRepo:     groupRepo,
		convRepo:      convRepo,
		messageRepo:   messageRepo,
		directory:     directory,
		media:         media,
		registry:      registry,
		guards:        guards,
		rateLimiter:   rateLimiter,
		uploadTimeout: uploadTimeout,
	}
}

type GroupChatResponse struct {
	Group        *entity.GroupChat    `json:"group"`
	Conversation *entity.Conversation `json:"conversation"`
}

// CreateGroupChat creates a group and its paired conversation together. The
// creator becomes the first admin; members exclude the creator in the input.
func (uc *GroupChatUseCase) CreateGroupChat(ctx context.Context, creatorUID, name string, memberIDs []string) (*GroupChatResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(creatorUID, "create_group")
	if !allowed {
		log.Printf("CreateGroupChat Rate Limited: %s must wait %v", creatorUID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before creating another group", waitTime)
	}

	if name == "" {
		return nil, errors.BadRequest("Group name is required", nil)
	}

	creator := entity.Participant{ID: creatorUID, Kind: entity.KindUser}
	if _, err := uc.guards.CheckSuspension(ctx, creator); err != nil {
		return nil, err
	}

	members := dedupeIDs(memberIDs, creatorUID)
	total := len(members) + 1
	if total < entity.MinGroupMembers || total > entity.MaxGroupMembers {
		return nil, errors.BadRequest(fmt.Sprintf("Groups hold %d to %d members", entity.MinGroupMembers, entity.MaxGroupMembers), nil)
	}

	for _, memberID := range members {
		member := entity.Participant{ID: memberID, Kind: entity.KindUser}
		if _, err := uc.directory.GetParticipant(ctx, memberID, entity.KindUser); err != nil {
			log.Printf("CreateGroupChat: member %s not found: %v", memberID, err)
			return nil, errors.NotFound("Member", err)
		}
		if err := uc.guards.CheckBlocked(ctx, creator, member); err != nil {
			return nil, err
		}
	}

	roster := append([]string{creatorUID}, members...)
	now := time.Now()
	group := &entity.GroupChat{
		ID:        uuid.New().String(),
		Name:      name,
		Members:   roster,
		Admins:    []string{creatorUID},
		CreatedBy: creatorUID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv := &entity.Conversation{
		ID:        group.ID,
		Members:   roster,
		Kind:      entity.KindUser,
		IsGroup:   true,
		GroupID:   group.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.groupRepo.Create(ctx, group, conv); err != nil {
		log.Printf("CreateGroupChat: failed to create group %s: %v", name, err)
		return nil, err
	}

	resp := &GroupChatResponse{Group: group, Conversation: conv}
	uc.emitToRoster(roster, ws.EventGroupChatCreated, resp)

	return resp, nil
}

type SendGroupMessageInput struct {
	SenderID string
	GroupID  string
	Content  string
	Media    []MediaInput
}

// SendGroupMessage persists a group message and bumps both last-message
// mirrors in one write, then echoes to every member including the sender.
func (uc *GroupChatUseCase) SendGroupMessage(ctx context.Context, input SendGroupMessageInput) (*MessageResponse, error) {
	allowed, waitTime := uc.rateLimiter.Allow(input.SenderID, "send_message")
	if !allowed {
		log.Printf("SendGroupMessage Rate Limited: %s must wait %v", input.SenderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	sender := entity.Participant{ID: input.SenderID, Kind: entity.KindUser}
	senderRecord, err := uc.guards.CheckSuspension(ctx, sender)
	if err != nil {
		return nil, err
	}

	group, err := uc.guards.CheckGroupAccess(ctx, input.GroupID, input.SenderID, false)
	if err != nil {
		return nil, err
	}

	if err := validateMessageBody(input.Content, input.Media); err != nil {
		return nil, err
	}

	uploaded, err := uploadAll(ctx, uc.media, uc.uploadTimeout, "groups/"+input.GroupID, input.Media)
	if err != nil {
		return nil, err
	}

	conv, err := uc.convRepo.GetByID(ctx, group.ID)
	if err != nil {
		log.Printf("SendGroupMessage: paired conversation for group %s missing: %v", group.ID, err)
		destroyMedia(uc.media, uploaded)
		return nil, err
	}

	message := &entity.Message{
		SenderID:   input.SenderID,
		SenderKind: entity.KindUser,
		GroupID:    input.GroupID,
		Content:    input.Content,
		Media:      uploaded,
		CreatedAt:  time.Now(),
	}

	if err := uc.groupRepo.AppendMessage(ctx, group, conv, message); err != nil {
		log.Printf("SendGroupMessage: failed to persist message in group %s: %v", group.ID, err)
		destroyMedia(uc.media, uploaded)
		return nil, err
	}

	resp := &MessageResponse{Message: message, Sender: senderRecord}
	uc.emitToRoster(group.Members, ws.EventNewGroupMessage, resp)

	return resp, nil
}

// GetGroupMessages lists a group's visible history for a member.
func (uc *GroupChatUseCase) GetGroupMessages(ctx context.Context, callerUID, groupID string, limit, offset int) ([]*MessageResponse, int64, error) {
	if _, err := uc.guards.CheckGroupAccess(ctx, groupID, callerUID, false); err != nil {
		return nil, 0, err
	}

	messages, total, err := uc.messageRepo.ListByGroup(ctx, groupID, limit, offset)
	if err != nil {
		log.Printf("GetGroupMessages: failed for group %s: %v", groupID, err)
		return nil, 0, err
	}

	senders := make(map[string]*repository.ParticipantRecord)
	var responses []*MessageResponse
	for _, message := range messages {
		if !message.VisibleTo(callerUID) {
			continue
		}

		resp := &MessageResponse{Message: message}
		if cached, ok := senders[message.SenderID]; ok {
			resp.Sender = cached
		} else if record, err := uc.directory.GetParticipant(ctx, message.SenderID, entity.KindUser); err == nil {
			senders[message.SenderID] = record
			resp.Sender = record
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

// AddMembers adds participants to the roster; admin only, block-checked
// against each addition, capped at the group size limit.
func (uc *GroupChatUseCase) AddMembers(ctx context.Context, actorUID, groupID string, memberIDs []string) (*entity.GroupChat, error) {
	group, err := uc.guards.CheckGroupAccess(ctx, groupID, actorUID, true)
	if err != nil {
		return nil, err
	}

	added := dedupeIDs(memberIDs, "")
	if len(added) == 0 {
		return nil, errors.BadRequest("No members to add", nil)
	}
	if len(group.Members)+len(added) > entity.MaxGroupMembers {
		return nil, errors.BadRequest(fmt.Sprintf("Groups hold at most %d members", entity.MaxGroupMembers), nil)
	}

	actor := entity.Participant{ID: actorUID, Kind: entity.KindUser}
	for _, memberID := range added {
		if group.HasMember(memberID) {
			return nil, errors.Conflict("Participant is already a member")
		}
		if _, err := uc.directory.GetParticipant(ctx, memberID, entity.KindUser); err != nil {
			return nil, errors.NotFound("Member", err)
		}
		if err := uc.guards.CheckBlocked(ctx, actor, entity.Participant{ID: memberID, Kind: entity.KindUser}); err != nil {
			return nil, err
		}
	}

	conv, err := uc.convRepo.GetByID(ctx, group.ID)
	if err != nil {
		log.Printf("AddMembers: paired conversation for group %s missing: %v", group.ID, err)
		return nil, err
	}

	group.Members = append(group.Members, added...)
	conv.Members = append(conv.Members, added...)
	group.UpdatedAt = time.Now()

	if err := uc.groupRepo.UpdateWithConversation(ctx, group, conv); err != nil {
		log.Printf("AddMembers: failed to update group %s: %v", group.ID, err)
		return nil, err
	}

	event := ws.EventGroupMemberAdded
	if len(added) > 1 {
		event = ws.EventGroupMembersAdded
	}
	uc.emitToRoster(group.Members, event, map[string]interface{}{
		"group_id": group.ID,
		"added":    added,
		"by":       actorUID,
	})

	return group, nil
}

// RemoveMember kicks a participant; admin only. Dropping the roster below
// the minimum deletes the whole group.
func (uc *GroupChatUseCase) RemoveMember(ctx context.Context, actorUID, groupID, memberID string) error {
	group, err := uc.guards.CheckGroupAccess(ctx, groupID, actorUID, true)
	if err != nil {
		return err
	}
	if !group.HasMember(memberID) {
		return errors.NotFound("Member", nil)
	}

	if len(group.Members)-1 < entity.MinGroupMembers {
		return uc.deleteCascade(ctx, group, ws.EventGroupChatDeleted)
	}

	former := append([]string(nil), group.Members...)
	group.RemoveFromRoster(memberID)
	if len(group.Admins) == 0 {
		group.Admins = []string{group.Members[0]}
	}
	group.UpdatedAt = time.Now()

	conv, err := uc.convRepo.GetByID(ctx, group.ID)
	if err != nil {
		log.Printf("RemoveMember: paired conversation for group %s missing: %v", group.ID, err)
		return err
	}
	conv.Members = append([]string(nil), group.Members...)

	if err := uc.groupRepo.UpdateWithConversation(ctx, group, conv); err != nil {
		log.Printf("RemoveMember: failed to update group %s: %v", group.ID, err)
		return err
	}

	uc.emitToRoster(former, ws.EventGroupMemberRemoved, map[string]interface{}{
		"group_id": group.ID,
		"removed":  memberID,
		"by":       actorUID,
	})

	return nil
}

// UpdateAdmins replaces the admin set. The acting admin must remain in it
// and every admin must already be a member.
func (uc *GroupChatUseCase) UpdateAdmins(ctx context.Context, actorUID, groupID string, adminIDs []string) (*entity.GroupChat, error) {
	group, err := uc.guards.CheckGroupAccess(ctx, groupID, actorUID, true)
	if err != nil {
		return nil, err
	}

	admins := dedupeIDs(adminIDs, "")
	if len(admins) == 0 {
		return nil, errors.BadRequest("Admin set cannot be empty", nil)
	}
	for _, adminID := range admins {
		if !group.HasMember(adminID) {
			return nil, errors.BadRequest("Every admin must be a group member", nil)
		}
	}
	if !containsID(admins, actorUID) {
		return nil, errors.New("INVARIANT_VIOLATION", "The acting admin must remain in the admin set", http.StatusBadRequest, nil)
	}

	group.Admins = admins
	group.UpdatedAt = time.Now()
	if err := uc.groupRepo.Update(ctx, group); err != nil {
		log.Printf("UpdateAdmins: failed to update group %s: %v", group.ID, err)
		return nil, err
	}

	uc.emitToRoster(group.Members, ws.EventGroupUpdated, map[string]interface{}{
		"group_id": group.ID,
		"admins":   group.Admins,
	})

	return group, nil
}

// LeaveGroup removes the caller. A roster dropping below the minimum
// deletes the group; an emptied admin set promotes the first remaining
// member.
func (uc *GroupChatUseCase) LeaveGroup(ctx context.Context, callerUID, groupID string) error {
	group, err := uc.guards.CheckGroupAccess(ctx, groupID, callerUID, false)
	if err != nil {
		return err
	}

	if len(group.Members)-1 < entity.MinGroupMembers {
		return uc.deleteCascade(ctx, group, ws.EventGroupChatDeleted)
	}

	former := append([]string(nil), group.Members...)
	group.RemoveFromRoster(callerUID)
	if len(group.Admins) == 0 {
		group.Admins = []string{group.Members[0]}
	}
	group.UpdatedAt = time.Now()

	conv, err := uc.convRepo.GetByID(ctx, group.ID)
	if err != nil {
		log.Printf("LeaveGroup: paired conversation for group %s missing: %v", group.ID, err)
		return err
	}
	conv.Members = append([]string(nil), group.Members...)

	if err := uc.groupRepo.UpdateWithConversation(ctx, group, conv); err != nil {
		log.Printf("LeaveGroup: failed to update group %s: %v", group.ID, err)
		return err
	}

	uc.emitToRoster(former, ws.EventLeftGroup, map[string]interface{}{
		"group_id": group.ID,
		"left":     callerUID,
	})

	return nil
}

// DeleteGroup is the explicit admin deletion.
func (uc *GroupChatUseCase) DeleteGroup(ctx context.Context, actorUID, groupID string) error {
	group, err := uc.guards.CheckGroupAccess(ctx, groupID, actorUID, true)
	if err != nil {
		return err
	}
	return uc.deleteCascade(ctx, group, ws.EventGroupDeleted)
}

// deleteCascade removes the group's messages (destroying media
// best-effort), then the group and its paired conversation, and notifies
// the former roster. Irreversible.
func (uc *GroupChatUseCase) deleteCascade(ctx context.Context, group *entity.GroupChat, event string) error {
	former := append([]string(nil), group.Members...)

	messages, err := uc.messageRepo.DeleteByGroup(ctx, group.ID)
	if err != nil {
		log.Printf("deleteCascade: failed to delete messages of group %s: %v", group.ID, err)
		return err
	}
	for _, message := range messages {
		destroyMedia(uc.media, message.Media)
	}

	if err := uc.groupRepo.Delete(ctx, group.ID); err != nil {
		log.Printf("deleteCascade: failed to delete group %s: %v", group.ID, err)
		return err
	}

	uc.emitToRoster(former, event, map[string]interface{}{
		"group_id": group.ID,
	})

	return nil
}

func (uc *GroupChatUseCase) emitToRoster(roster []string, event string, payload interface{}) {
	for _, memberID := range roster {
		uc.registry.Emit(memberID, event, payload)
	}
}

func dedupeIDs(ids []string, exclude string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
