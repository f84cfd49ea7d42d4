package repository

import (
	"context"

	"coursebay/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetByID(ctx context.Context, id string) (*entity.Message, error)
	Update(ctx context.Context, message *entity.Message) error
	Delete(ctx context.Context, id string) error

	ListByPair(ctx context.Context, pairKey string, limit, offset int) ([]*entity.Message, int64, error)
	ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*entity.Message, int64, error)
	ListBySender(ctx context.Context, sender entity.Participant) ([]*entity.Message, error)

	// LatestVisibleByPair returns the most recent non-deleted message for a
	// pair, or NotFound when none remain.
	LatestVisibleByPair(ctx context.Context, pairKey string) (*entity.Message, error)

	// DeleteByGroup hard-deletes every message of a group and returns the
	// deleted records so callers can destroy associated media.
	DeleteByGroup(ctx context.Context, groupID string) ([]*entity.Message, error)
}
