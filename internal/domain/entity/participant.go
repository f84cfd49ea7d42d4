package entity

// ParticipantKind distinguishes the two directory kinds that can take part
// in a conversation.
type ParticipantKind string

const (
	KindUser ParticipantKind = "user"
	KindShop ParticipantKind = "shop"
)

func (k ParticipantKind) Valid() bool {
	return k == KindUser || k == KindShop
}

// Participant is an opaque id+kind pair. The messaging core never looks at
// directory attributes directly; it only addresses and authorizes by pair.
type Participant struct {
	ID   string          `json:"id" firestore:"id"`
	Kind ParticipantKind `json:"kind" firestore:"kind"`
}

// SocketKey is the realtime registry key: plain id for users, a prefixed id
// for shops so a user and their shop can hold separate connections.
func (p Participant) SocketKey() string {
	if p.Kind == KindShop {
		return "shop_" + p.ID
	}
	return p.ID
}

func (p Participant) Equals(other Participant) bool {
	return p.ID == other.ID && p.Kind == other.Kind
}
