package entity

import "time"

// Conversation is the thread summary record. Direct conversations have
// exactly two members; group conversations mirror their GroupChat roster and
// carry the group id. The conversation owns only the pointer to the latest
// message, never the message itself.
type Conversation struct {
	ID      string   `json:"id" firestore:"id"`
	Members []string `json:"members" firestore:"members"`
	// Kind is "user" for user-to-user threads and "shop" when one side is a
	// shop. Group conversations are always user kind.
	Kind          ParticipantKind `json:"kind" firestore:"kind"`
	IsGroup       bool            `json:"is_group" firestore:"isGroup"`
	GroupID       string          `json:"group_id,omitempty" firestore:"groupId,omitempty"`
	LastMessage   string          `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageID string          `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	// IsArchived is a per-member visibility flag; an absent key means the
	// thread is visible to that member.
	IsArchived map[string]bool `json:"is_archived,omitempty" firestore:"isArchived,omitempty"`
	CreatedAt  time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time       `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) HasMember(participantID string) bool {
	for _, id := range c.Members {
		if id == participantID {
			return true
		}
	}
	return false
}

func (c *Conversation) ArchivedFor(participantID string) bool {
	if c.IsArchived == nil {
		return false
	}
	return c.IsArchived[participantID]
}

// Counterpart returns the other member of a direct conversation.
func (c *Conversation) Counterpart(participantID string) string {
	for _, id := range c.Members {
		if id != participantID {
			return id
		}
	}
	return ""
}
