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

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		doc := r.client.Collection("messages").NewDoc()
		message.ID = doc.ID
	}

	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.client.Collection("messages").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) Update(ctx context.Context, message *entity.Message) error {
	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to update message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("messages").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListByPair(ctx context.Context, pairKey string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("messages").
		Where("pairKey", "==", pairKey).
		OrderBy("createdAt", firestore.Desc)

	return r.list(ctx, query, limit, offset)
}

func (r *firestoreMessageRepository) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("messages").
		Where("groupId", "==", groupID).
		OrderBy("createdAt", firestore.Desc)

	return r.list(ctx, query, limit, offset)
}

func (r *firestoreMessageRepository) list(ctx context.Context, query firestore.Query, limit, offset int) ([]*entity.Message, int64, error) {
	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to list messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) ListBySender(ctx context.Context, sender entity.Participant) ([]*entity.Message, error) {
	iter := r.client.Collection("messages").
		Where("senderId", "==", sender.ID).
		Where("senderKind", "==", string(sender.Kind)).
		Documents(ctx)

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list sent messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreMessageRepository) LatestVisibleByPair(ctx context.Context, pairKey string) (*entity.Message, error) {
	iter := r.client.Collection("messages").
		Where("pairKey", "==", pairKey).
		Where("isDeleted", "==", false).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Message", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query latest message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) DeleteByGroup(ctx context.Context, groupID string) ([]*entity.Message, error) {
	docs, err := r.client.Collection("messages").
		Where("groupId", "==", groupID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list group messages", err)
	}

	var deleted []*entity.Message
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return deleted, errors.Internal("Failed to parse message data", err)
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return deleted, errors.Internal("Failed to delete group message", err)
		}
		deleted = append(deleted, &message)
	}

	return deleted, nil
}
