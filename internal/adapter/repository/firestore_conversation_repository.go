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

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// AppendDirect runs the message write and the conversation upsert in one
// transaction. The conversation document id is derived from the pair, so two
// concurrent first sends land on the same document and the transaction
// retries the loser.
func (r *firestoreConversationRepository) AppendDirect(ctx context.Context, conv *entity.Conversation, message *entity.Message) (*entity.Conversation, error) {
	if message.ID == "" {
		message.ID = r.client.Collection("messages").NewDoc().ID
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	convRef := r.client.Collection("conversations").Doc(conv.ID)
	messageRef := r.client.Collection("messages").Doc(message.ID)

	var result entity.Conversation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(convRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now()
		if err == nil {
			if err := doc.DataTo(&result); err != nil {
				return err
			}
		} else {
			result = *conv
			result.CreatedAt = now
		}

		result.LastMessage = preview(message)
		result.LastMessageID = message.ID
		result.IsArchived = nil
		result.UpdatedAt = now

		if err := tx.Set(messageRef, message); err != nil {
			return err
		}
		return tx.Set(convRef, &result)
	})
	if err != nil {
		return nil, errors.Internal("Failed to append message", err)
	}

	return &result, nil
}

func preview(message *entity.Message) string {
	if message.Content != "" {
		return message.Content
	}
	return "[media]"
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) GetDirect(ctx context.Context, pairKey string) (*entity.Conversation, error) {
	// Direct conversations are addressed by their pair key.
	return r.GetByID(ctx, pairKey)
}

func (r *firestoreConversationRepository) ListByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("members", "array-contains", participantID).
		OrderBy("updatedAt", firestore.Desc)

	return r.list(ctx, query, limit, offset)
}

func (r *firestoreConversationRepository) ListDirectByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection("conversations").
		Where("members", "array-contains", participantID).
		Where("isGroup", "==", false).
		OrderBy("updatedAt", firestore.Desc)

	return r.list(ctx, query, limit, offset)
}

func (r *firestoreConversationRepository) list(ctx context.Context, query firestore.Query, limit, offset int) ([]*entity.Conversation, int64, error) {
	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count conversations", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var conversations []*entity.Conversation

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to list conversations", err)
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return nil, 0, errors.Internal("Failed to parse conversation data", err)
		}
		conversations = append(conversations, &conv)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conv *entity.Conversation) error {
	conv.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conv.ID).Set(ctx, conv)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("conversations").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) SetArchived(ctx context.Context, conversationID, participantID string, archived bool) error {
	ref := r.client.Collection("conversations").Doc(conversationID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		if conv.IsArchived == nil {
			conv.IsArchived = make(map[string]bool)
		}
		if archived {
			conv.IsArchived[participantID] = true
		} else {
			delete(conv.IsArchived, participantID)
		}
		conv.UpdatedAt = time.Now()

		return tx.Set(ref, &conv)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to update archive flag", err)
	}

	return nil
}
