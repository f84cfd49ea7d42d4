package repository

import (
	"context"

	"coursebay/internal/domain/entity"
)

type GroupChatRepository interface {
	// Create writes the group and its paired conversation together.
	Create(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error

	GetByID(ctx context.Context, id string) (*entity.GroupChat, error)
	Update(ctx context.Context, group *entity.GroupChat) error

	// UpdateWithConversation applies a roster mutation to the group and its
	// paired conversation in lockstep.
	UpdateWithConversation(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error

	// AppendMessage persists a group message and bumps the last-message
	// mirrors on both the group and its conversation atomically.
	AppendMessage(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation, message *entity.Message) error

	// Delete removes the group and its paired conversation together.
	// Message cleanup is the caller's cascade.
	Delete(ctx context.Context, groupID string) error

	ListByMember(ctx context.Context, participantID string) ([]*entity.GroupChat, error)
}
