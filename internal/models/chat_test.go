package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatClone(t *testing.T) {
	chat := Chat{ID: 1, User1: User{ID: 1}, User2: User{ID: 2}, Messages: []Message{{ID: 1, Content: "hi"}}}

	clone := chat.Clone()
	clone.Messages[0].Content = "changed"

	assert.Equal(t, "hi", chat.Messages[0].Content)
}

func TestChatHasParticipant(t *testing.T) {
	chat := Chat{User1: User{ID: 1}, User2: User{ID: 2}}
	assert.True(t, chat.HasParticipant(1))
	assert.True(t, chat.HasParticipant(2))
	assert.False(t, chat.HasParticipant(3))
}

func TestChatLastMessage(t *testing.T) {
	_, ok := Chat{}.LastMessage()
	assert.False(t, ok)

	msg, ok := Chat{Messages: []Message{{ID: 1}, {ID: 2}}}.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, 2, msg.ID)
}
