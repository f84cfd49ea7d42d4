package repository

import (
	"context"

	"coursebay/internal/domain/entity"
)

type ConversationRepository interface {
	// AppendDirect persists a direct message and its conversation update as
	// one atomic write: the message document is created, and the
	// conversation (addressed by its pair-derived id) is created if absent
	// or has its last-message pointer bumped and both archived flags
	// cleared if present. Two concurrent first sends converge on the same
	// conversation document.
	AppendDirect(ctx context.Context, conv *entity.Conversation, message *entity.Message) (*entity.Conversation, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetDirect(ctx context.Context, pairKey string) (*entity.Conversation, error)
	ListByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error)
	// ListDirectByMember scopes the query to non-group conversations so
	// group threads never consume page slots, and the returned total counts
	// direct threads only.
	ListDirectByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error)
	Update(ctx context.Context, conv *entity.Conversation) error
	Delete(ctx context.Context, id string) error

	SetArchived(ctx context.Context, conversationID, participantID string, archived bool) error
}
