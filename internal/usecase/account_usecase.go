package usecase

import (
	"context"
	"log"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/internal/domain/service"
	ws "coursebay/internal/infrastructure/websocket"
	"coursebay/pkg/errors"
)

// AccountUseCase runs the messaging-side cleanup when an account is removed
// from the platform. Each step logs and continues so a partial failure never
// leaves the purge half-aborted.
type AccountUseCase struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	groupRepo   repository.GroupChatRepository
	media       service.MediaStore
	registry    SocketRegistry
}

func NewAccountUseCase(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	groupRepo repository.GroupChatRepository,
	media service.MediaStore,
	registry SocketRegistry,
) *AccountUseCase {
	return &AccountUseCase{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		groupRepo:   groupRepo,
		media:       media,
		registry:    registry,
	}
}

// PurgeParticipant erases a participant's messaging footprint: their sent
// messages and media, their group memberships, and any direct conversations
// left without visible history.
func (uc *AccountUseCase) PurgeParticipant(ctx context.Context, p entity.Participant) error {
	if !p.Kind.Valid() {
		return errors.BadRequest("Invalid participant kind", nil)
	}

	uc.purgeSentMessages(ctx, p)
	uc.purgeGroupMemberships(ctx, p)
	uc.purgeDirectConversations(ctx, p)

	return nil
}

func (uc *AccountUseCase) purgeSentMessages(ctx context.Context, p entity.Participant) {
	messages, err := uc.messageRepo.ListBySender(ctx, p)
	if err != nil {
		log.Printf("PurgeParticipant: failed to list messages of %s %s: %v", p.Kind, p.ID, err)
		return
	}

	for _, message := range messages {
		destroyMedia(uc.media, message.Media)
		if err := uc.messageRepo.Delete(ctx, message.ID); err != nil {
			log.Printf("PurgeParticipant: failed to delete message %s: %v", message.ID, err)
		}
	}
}

func (uc *AccountUseCase) purgeGroupMemberships(ctx context.Context, p entity.Participant) {
	if p.Kind != entity.KindUser {
		return
	}

	groups, err := uc.groupRepo.ListByMember(ctx, p.ID)
	if err != nil {
		log.Printf("PurgeParticipant: failed to list groups of %s: %v", p.ID, err)
		return
	}

	for _, group := range groups {
		soleAdmin := len(group.Admins) == 1 && group.Admins[0] == p.ID
		if soleAdmin || len(group.Members)-1 < entity.MinGroupMembers {
			uc.cascadeGroup(ctx, group)
			continue
		}

		former := append([]string(nil), group.Members...)
		group.RemoveFromRoster(p.ID)

		conv, err := uc.convRepo.GetByID(ctx, group.ID)
		if err != nil {
			log.Printf("PurgeParticipant: paired conversation for group %s missing: %v", group.ID, err)
			continue
		}
		conv.Members = append([]string(nil), group.Members...)

		if err := uc.groupRepo.UpdateWithConversation(ctx, group, conv); err != nil {
			log.Printf("PurgeParticipant: failed to update group %s: %v", group.ID, err)
			continue
		}

		for _, memberID := range former {
			uc.registry.Emit(memberID, ws.EventGroupMemberRemoved, map[string]interface{}{
				"group_id": group.ID,
				"removed":  p.ID,
			})
		}
	}
}

func (uc *AccountUseCase) cascadeGroup(ctx context.Context, group *entity.GroupChat) {
	former := append([]string(nil), group.Members...)

	messages, err := uc.messageRepo.DeleteByGroup(ctx, group.ID)
	if err != nil {
		log.Printf("PurgeParticipant: failed to delete messages of group %s: %v", group.ID, err)
		return
	}
	for _, message := range messages {
		destroyMedia(uc.media, message.Media)
	}

	if err := uc.groupRepo.Delete(ctx, group.ID); err != nil {
		log.Printf("PurgeParticipant: failed to delete group %s: %v", group.ID, err)
		return
	}

	for _, memberID := range former {
		uc.registry.Emit(memberID, ws.EventGroupChatDeleted, map[string]interface{}{
			"group_id": group.ID,
		})
	}
}

func (uc *AccountUseCase) purgeDirectConversations(ctx context.Context, p entity.Participant) {
	const pageSize = 100

	// Collect first, mutate after. Deleting or updating rows mid-sweep
	// shifts the paginated result set underneath the cursor.
	var direct []*entity.Conversation
	offset := 0
	for {
		conversations, _, err := uc.convRepo.ListByMember(ctx, p.ID, pageSize, offset)
		if err != nil {
			log.Printf("PurgeParticipant: failed to list conversations of %s: %v", p.ID, err)
			return
		}

		for _, conv := range conversations {
			if !conv.IsGroup {
				direct = append(direct, conv)
			}
		}

		if len(conversations) < pageSize {
			break
		}
		offset += pageSize
	}

	for _, conv := range direct {
		latest, err := uc.messageRepo.LatestVisibleByPair(ctx, conv.ID)
		if err != nil {
			if errors.Is(err, "NOT_FOUND") {
				if err := uc.convRepo.Delete(ctx, conv.ID); err != nil {
					log.Printf("PurgeParticipant: failed to delete conversation %s: %v", conv.ID, err)
				}
				continue
			}
			log.Printf("PurgeParticipant: failed to load latest message of %s: %v", conv.ID, err)
			continue
		}

		conv.LastMessage = messagePreview(latest)
		conv.LastMessageID = latest.ID
		if err := uc.convRepo.Update(ctx, conv); err != nil {
			log.Printf("PurgeParticipant: failed to update conversation %s: %v", conv.ID, err)
		}
	}
}
