package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/pkg/errors"
)

type firestoreGroupChatRepository struct {
	client *firestore.Client
}

func NewFirestoreGroupChatRepository(client *firestore.Client) repository.GroupChatRepository {
	return &firestoreGroupChatRepository{
		client: client,
	}
}

func (r *firestoreGroupChatRepository) Create(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error {
	if group.ID == "" {
		group.ID = r.client.Collection("group_chats").NewDoc().ID
		conv.ID = group.ID
		conv.GroupID = group.ID
	}

	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	groupRef := r.client.Collection("group_chats").Doc(group.ID)
	convRef := r.client.Collection("conversations").Doc(conv.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(groupRef, group); err != nil {
			return err
		}
		return tx.Set(convRef, conv)
	})
	if err != nil {
		return errors.Internal("Failed to create group chat", err)
	}

	return nil
}

func (r *firestoreGroupChatRepository) GetByID(ctx context.Context, id string) (*entity.GroupChat, error) {
	doc, err := r.client.Collection("group_chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Group chat", err)
		}
		return nil, errors.Internal("Failed to get group chat", err)
	}

	var group entity.GroupChat
	if err := doc.DataTo(&group); err != nil {
		return nil, errors.Internal("Failed to parse group chat data", err)
	}

	return &group, nil
}

func (r *firestoreGroupChatRepository) Update(ctx context.Context, group *entity.GroupChat) error {
	group.UpdatedAt = time.Now()

	_, err := r.client.Collection("group_chats").Doc(group.ID).Set(ctx, group)
	if err != nil {
		return errors.Internal("Failed to update group chat", err)
	}

	return nil
}

func (r *firestoreGroupChatRepository) UpdateWithConversation(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error {
	now := time.Now()
	group.UpdatedAt = now
	conv.UpdatedAt = now

	groupRef := r.client.Collection("group_chats").Doc(group.ID)
	convRef := r.client.Collection("conversations").Doc(conv.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Set(groupRef, group); err != nil {
			return err
		}
		return tx.Set(convRef, conv)
	})
	if err != nil {
		return errors.Internal("Failed to update group chat", err)
	}

	return nil
}

// AppendMessage writes the message and bumps the last-message mirrors on the
// group and its paired conversation in one transaction.
func (r *firestoreGroupChatRepository) AppendMessage(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation, message *entity.Message) error {
	if message.ID == "" {
		message.ID = r.client.Collection("messages").NewDoc().ID
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	groupRef := r.client.Collection("group_chats").Doc(group.ID)
	convRef := r.client.Collection("conversations").Doc(conv.ID)
	messageRef := r.client.Collection("messages").Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		mirror := preview(message)

		group.LastMessage = mirror
		group.LastMessageID = message.ID
		group.UpdatedAt = now

		conv.LastMessage = mirror
		conv.LastMessageID = message.ID
		conv.UpdatedAt = now

		if err := tx.Set(messageRef, message); err != nil {
			return err
		}
		if err := tx.Set(groupRef, group); err != nil {
			return err
		}
		return tx.Set(convRef, conv)
	})
	if err != nil {
		return errors.Internal("Failed to append group message", err)
	}

	return nil
}

func (r *firestoreGroupChatRepository) Delete(ctx context.Context, groupID string) error {
	groupRef := r.client.Collection("group_chats").Doc(groupID)
	convRef := r.client.Collection("conversations").Doc(groupID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Delete(groupRef); err != nil {
			return err
		}
		return tx.Delete(convRef)
	})
	if err != nil {
		return errors.Internal("Failed to delete group chat", err)
	}

	return nil
}

func (r *firestoreGroupChatRepository) ListByMember(ctx context.Context, participantID string) ([]*entity.GroupChat, error) {
	iter := r.client.Collection("group_chats").
		Where("members", "array-contains", participantID).
		Documents(ctx)

	var groups []*entity.GroupChat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list group chats", err)
		}

		var group entity.GroupChat
		if err := doc.DataTo(&group); err != nil {
			return nil, errors.Internal("Failed to parse group chat data", err)
		}
		groups = append(groups, &group)
	}

	return groups, nil
}
