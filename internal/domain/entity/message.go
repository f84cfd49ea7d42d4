package entity

import (
	"sort"
	"strings"
	"time"
)

const MaxMediaItems = 4

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// Media is one uploaded attachment. StorageRef is the object path inside the
// media store, URL the public address handed to clients.
type Media struct {
	Kind       MediaKind `json:"kind" firestore:"kind"`
	StorageRef string    `json:"storage_ref" firestore:"storageRef"`
	URL        string    `json:"url" firestore:"url"`
}

type Message struct {
	ID           string          `json:"id" firestore:"id"`
	SenderID     string          `json:"sender_id" firestore:"senderId"`
	SenderKind   ParticipantKind `json:"sender_kind" firestore:"senderKind"`
	ReceiverID   string          `json:"receiver_id,omitempty" firestore:"receiverId,omitempty"`
	ReceiverKind ParticipantKind `json:"receiver_kind,omitempty" firestore:"receiverKind,omitempty"`
	GroupID      string          `json:"group_id,omitempty" firestore:"groupId,omitempty"`
	// PairKey is denormalized for direct messages so one indexed query can
	// fetch a pair's history. Empty for group messages.
	PairKey   string    `json:"-" firestore:"pairKey,omitempty"`
	Content   string    `json:"content" firestore:"content"`
	Media     []Media   `json:"media,omitempty" firestore:"media,omitempty"`
	IsRead    bool      `json:"is_read" firestore:"isRead"`
	IsDeleted bool      `json:"is_deleted" firestore:"isDeleted"`
	DeletedBy []string  `json:"deleted_by,omitempty" firestore:"deletedBy,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

func (m *Message) Sender() Participant {
	return Participant{ID: m.SenderID, Kind: m.SenderKind}
}

func (m *Message) Receiver() Participant {
	return Participant{ID: m.ReceiverID, Kind: m.ReceiverKind}
}

func (m *Message) IsGroupMessage() bool {
	return m.GroupID != ""
}

// DeletedFor reports whether the participant removed the message from their
// own view. Distinct from IsDeleted, which hides it for everyone.
func (m *Message) DeletedFor(participantID string) bool {
	for _, id := range m.DeletedBy {
		if id == participantID {
			return true
		}
	}
	return false
}

// VisibleTo is the read-path filter: soft-deleted messages and messages the
// participant deleted for themselves are hidden.
func (m *Message) VisibleTo(participantID string) bool {
	return !m.IsDeleted && !m.DeletedFor(participantID)
}

// DirectPairKey identifies the single direct thread between two participants.
// It doubles as the conversation document id, which is how the store enforces
// at most one direct conversation per unordered pair per kind.
func DirectPairKey(a, b Participant) string {
	kind := KindUser
	if a.Kind == KindShop || b.Kind == KindShop {
		kind = KindShop
	}
	ids := []string{a.ID, b.ID}
	sort.Strings(ids)
	return "direct_" + string(kind) + "_" + strings.Join(ids, "_")
}
