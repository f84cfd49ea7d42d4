package entity

import "time"

const (
	MinGroupMembers = 2
	MaxGroupMembers = 50
)

// GroupChat is the named, admin-moderated roster. It is paired 1:1 with a
// Conversation sharing its id; roster mutations must touch both records.
type GroupChat struct {
	ID            string    `json:"id" firestore:"id"`
	Name          string    `json:"name" firestore:"name"`
	Members       []string  `json:"members" firestore:"members"`
	Admins        []string  `json:"admins" firestore:"admins"`
	CreatedBy     string    `json:"created_by" firestore:"createdBy"`
	LastMessage   string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageID string    `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (g *GroupChat) HasMember(participantID string) bool {
	for _, id := range g.Members {
		if id == participantID {
			return true
		}
	}
	return false
}

func (g *GroupChat) IsAdmin(participantID string) bool {
	for _, id := range g.Admins {
		if id == participantID {
			return true
		}
	}
	return false
}

// RemoveFromRoster strips a participant from members and admins.
func (g *GroupChat) RemoveFromRoster(participantID string) {
	g.Members = removeID(g.Members, participantID)
	g.Admins = removeID(g.Admins, participantID)
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
