package repository

import (
	"context"
	"time"

	"coursebay/internal/domain/entity"
)

// ParticipantRecord is the directory view of a user or shop. One shared
// shape for both kinds: the adapter maps each collection's own field names
// into it, so callers never branch on kind.
type ParticipantRecord struct {
	ID             string                 `json:"id"`
	Kind           entity.ParticipantKind `json:"kind"`
	Name           string                 `json:"name"`
	AvatarURL      string                 `json:"avatar_url,omitempty"`
	Email          string                 `json:"-"`
	Suspended      bool                   `json:"-"`
	SuspendedUntil *time.Time             `json:"-"`
	Verified       bool                   `json:"verified"`
	Blocked        []string               `json:"-"`
	NotifyByEmail  bool                   `json:"-"`
	// OwnerID is set for shops only.
	OwnerID string `json:"-"`
}

func (r *ParticipantRecord) Participant() entity.Participant {
	return entity.Participant{ID: r.ID, Kind: r.Kind}
}

// SuspensionActive reports whether a suspension currently applies: suspended
// with no expiry, or with an expiry still in the future.
func (r *ParticipantRecord) SuspensionActive(now time.Time) bool {
	if !r.Suspended {
		return false
	}
	if r.SuspendedUntil == nil {
		return true
	}
	return r.SuspendedUntil.After(now)
}

func (r *ParticipantRecord) HasBlocked(participantID string) bool {
	for _, id := range r.Blocked {
		if id == participantID {
			return true
		}
	}
	return false
}

// Directory is the identity collaborator. The messaging core only reads it,
// except for the shop block list which message routes are allowed to flip.
type Directory interface {
	GetParticipant(ctx context.Context, id string, kind entity.ParticipantKind) (*ParticipantRecord, error)
	GetShopByOwner(ctx context.Context, ownerID string) (*ParticipantRecord, error)
	SetBlocked(ctx context.Context, owner entity.Participant, targetID string, blocked bool) error
}
