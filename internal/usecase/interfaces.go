package usecase

import (
	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
)

// SocketRegistry is the realtime fan-out capability handed to usecases.
// Emission is fire-and-forget: no connection for the key means no delivery,
// and no error.
type SocketRegistry interface {
	Emit(key, event string, payload interface{})
}

// MediaInput is a client-supplied attachment: base64 payload plus kind.
type MediaInput struct {
	Data string
	Kind entity.MediaKind
}

// MessageResponse is a persisted message joined with its sender's directory
// record, the shape pushed to sockets and returned to callers.
type MessageResponse struct {
	*entity.Message
	Sender *repository.ParticipantRecord `json:"sender,omitempty"`
}

// ConversationResponse joins a conversation with the counterpart's directory
// record for direct threads.
type ConversationResponse struct {
	*entity.Conversation
	Counterpart *repository.ParticipantRecord `json:"counterpart,omitempty"`
}
