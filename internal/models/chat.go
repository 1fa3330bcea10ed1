package models

// Chat represents a private chat between exactly two users.
type Chat struct {
	ID          int       `json:"id"`
	User1       User      `json:"user1"`
	User2       User      `json:"user2"`
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unread_count"`
}

// HasParticipant reports whether userID is one of the two chat members.
func (c Chat) HasParticipant(userID int) bool {
	return c.User1.ID == userID || c.User2.ID == userID
}

// LastMessage returns the most recently appended message.
func (c Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Clone returns a copy that shares no message storage with c.
func (c Chat) Clone() Chat {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
