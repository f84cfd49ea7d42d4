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

// firestoreDirectory reads identity out of the platform's users and shops
// collections. The two collections name their fields differently, so each
// kind has its own document shape mapped into the shared record.
type firestoreDirectory struct {
	client *firestore.Client
}

func NewFirestoreDirectory(client *firestore.Client) repository.Directory {
	return &firestoreDirectory{
		client: client,
	}
}

type userDoc struct {
	Name           string     `firestore:"name"`
	AvatarURL      string     `firestore:"avatarUrl"`
	Email          string     `firestore:"email"`
	Suspended      bool       `firestore:"suspended"`
	SuspendedUntil *time.Time `firestore:"suspendedUntil"`
	BlockedShops   []string   `firestore:"blockedShops"`
	EmailOnMessage bool       `firestore:"emailOnMessage"`
}

type shopDoc struct {
	ShopName       string     `firestore:"shopName"`
	LogoURL        string     `firestore:"logoUrl"`
	Email          string     `firestore:"email"`
	OwnerID        string     `firestore:"ownerId"`
	Verified       bool       `firestore:"verified"`
	Suspended      bool       `firestore:"suspended"`
	SuspendedUntil *time.Time `firestore:"suspendedUntil"`
	BlockedUsers   []string   `firestore:"blockedUsers"`
	EmailOnMessage bool       `firestore:"emailOnMessage"`
}

func (d *firestoreDirectory) GetParticipant(ctx context.Context, id string, kind entity.ParticipantKind) (*repository.ParticipantRecord, error) {
	switch kind {
	case entity.KindUser:
		return d.getUser(ctx, id)
	case entity.KindShop:
		return d.getShop(ctx, id)
	default:
		return nil, errors.BadRequest("Invalid participant kind", nil)
	}
}

func (d *firestoreDirectory) getUser(ctx context.Context, id string) (*repository.ParticipantRecord, error) {
	doc, err := d.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user userDoc
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	return &repository.ParticipantRecord{
		ID:             doc.Ref.ID,
		Kind:           entity.KindUser,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
		Email:          user.Email,
		Suspended:      user.Suspended,
		SuspendedUntil: user.SuspendedUntil,
		Verified:       true,
		Blocked:        user.BlockedShops,
		NotifyByEmail:  user.EmailOnMessage,
	}, nil
}

func (d *firestoreDirectory) getShop(ctx context.Context, id string) (*repository.ParticipantRecord, error) {
	doc, err := d.client.Collection("shops").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Shop", err)
		}
		return nil, errors.Internal("Failed to get shop", err)
	}

	var shop shopDoc
	if err := doc.DataTo(&shop); err != nil {
		return nil, errors.Internal("Failed to parse shop data", err)
	}

	return shopRecord(doc.Ref.ID, &shop), nil
}

func (d *firestoreDirectory) GetShopByOwner(ctx context.Context, ownerID string) (*repository.ParticipantRecord, error) {
	iter := d.client.Collection("shops").
		Where("ownerId", "==", ownerID).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Shop", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query shop", err)
	}

	var shop shopDoc
	if err := doc.DataTo(&shop); err != nil {
		return nil, errors.Internal("Failed to parse shop data", err)
	}

	return shopRecord(doc.Ref.ID, &shop), nil
}

func shopRecord(id string, shop *shopDoc) *repository.ParticipantRecord {
	return &repository.ParticipantRecord{
		ID:             id,
		Kind:           entity.KindShop,
		Name:           shop.ShopName,
		AvatarURL:      shop.LogoURL,
		Email:          shop.Email,
		Suspended:      shop.Suspended,
		SuspendedUntil: shop.SuspendedUntil,
		Verified:       shop.Verified,
		Blocked:        shop.BlockedUsers,
		NotifyByEmail:  shop.EmailOnMessage,
		OwnerID:        shop.OwnerID,
	}
}

func (d *firestoreDirectory) SetBlocked(ctx context.Context, owner entity.Participant, targetID string, blocked bool) error {
	collection := "shops"
	field := "blockedUsers"
	if owner.Kind == entity.KindUser {
		collection = "users"
		field = "blockedShops"
	}

	var op interface{} = firestore.ArrayRemove(targetID)
	if blocked {
		op = firestore.ArrayUnion(targetID)
	}

	_, err := d.client.Collection(collection).Doc(owner.ID).Update(ctx, []firestore.Update{
		{Path: field, Value: op},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Participant", err)
		}
		return errors.Internal("Failed to update block list", err)
	}

	return nil
}
