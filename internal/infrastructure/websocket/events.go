package websocket

// Event names pushed to connected clients.
const (
	EventNewMessage              = "newMessage"
	EventMessageSent             = "messageSent"
	EventMessageRead             = "messageRead"
	EventMessageDeleted          = "messageDeleted"
	EventConversationArchived    = "conversationArchived"
	EventConversationUnarchived  = "conversationUnarchived"
	EventNewGroupMessage         = "newGroupMessage"
	EventGroupChatCreated        = "groupChatCreated"
	EventGroupMemberAdded        = "groupMemberAdded"
	EventGroupMembersAdded       = "groupMembersAdded"
	EventGroupMemberRemoved      = "groupMemberRemoved"
	EventGroupUpdated            = "groupUpdated"
	EventGroupDeleted            = "groupDeleted"
	EventGroupChatDeleted        = "groupChatDeleted"
	EventLeftGroup               = "leftGroup"
	EventBlockedByShop           = "blockedByShop"
	EventUnblockedByShop         = "unblockedByShop"
)

// Envelope is the wire shape of every emitted event.
type Envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}
