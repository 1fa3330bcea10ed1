package models

// Message represents a chat message.
type Message struct {
	ID        int    `json:"id"`
	Sender    User   `json:"sender"`
	Recipient User   `json:"recipient"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
}

// Chat event types.
const (
	EventChatCreated    = "chat_created"
	EventMessageSent    = "message_sent"
	EventMessagesRead   = "messages_read"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventChatDeleted    = "chat_deleted"
)

// ChatEvent describes a state change of the chat store.
type ChatEvent struct {
	Type        string `json:"type"`
	ChatID      int    `json:"chat_id,omitempty"`
	MessageID   int    `json:"message_id,omitempty"`
	UserID      int    `json:"user_id,omitempty"`
	RecipientID int    `json:"recipient_id,omitempty"`
	MarkedRead  int    `json:"marked_read,omitempty"`
}
