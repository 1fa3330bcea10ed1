package services

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"chatbook/internal/models"
	"chatbook/internal/observability"
)

// NoMessagesPlaceholder stands in for the last message of an empty chat.
const NoMessagesPlaceholder = "no messages"

const (
	resultOK   = "ok"
	resultMiss = "miss"
)

// EventEmitter receives a notification for every state change of the store.
type EventEmitter interface {
	Emit(ctx context.Context, event models.ChatEvent)
}

// ChatService keeps chats and their messages in memory.
//
// Unread bookkeeping is approximate: UnreadCount grows by one on every send
// whoever the recipient is, and GetMessages resets it to the number of
// messages still unread by the recipient that asked. GetUnreadChatsCount
// counts chats with a positive counter, not messages.
type ChatService struct {
	mu            sync.Mutex
	chats         map[int]*models.Chat
	order         []int
	nextMessageID int
	messageCount  int

	events EventEmitter
	log    *zap.Logger
	tracer trace.Tracer
}

// NewChatService constructs an empty ChatService. Both arguments may be nil.
func NewChatService(events EventEmitter, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		chats:  make(map[int]*models.Chat),
		events: events,
		log:    log.With(zap.String("component", "chat_service")),
		tracer: otel.Tracer("chatbook/services"),
	}
}

// SendMessage appends a message to the chat, creating the chat with sender
// and recipient as participants when chatID is new.
func (s *ChatService) SendMessage(ctx context.Context, chatID int, sender, recipient models.User, content string) models.Chat {
	ctx, span := s.tracer.Start(ctx, "chat.SendMessage", trace.WithAttributes(
		attribute.Int("chat.id", chatID),
		attribute.Int("user.id", sender.ID),
	))
	defer span.End()

	s.mu.Lock()
	chat, created := s.getOrCreateChatLocked(chatID, sender, recipient)
	s.nextMessageID++
	msg := models.Message{
		ID:        s.nextMessageID,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
	}
	chat.Messages = append(chat.Messages, msg)
	chat.UnreadCount++
	s.messageCount++
	snapshot := chat.Clone()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("message.id", msg.ID))
	s.log.Debug("message sent",
		zap.Int("chat_id", chatID),
		zap.Int("message_id", msg.ID),
		zap.Int("sender_id", sender.ID),
		zap.Int("recipient_id", recipient.ID),
		zap.Bool("chat_created", created),
	)
	observability.ObserveOperation("send_message", resultOK)

	if created {
		s.emit(ctx, models.ChatEvent{Type: models.EventChatCreated, ChatID: chatID, UserID: sender.ID, RecipientID: recipient.ID})
	}
	s.emit(ctx, models.ChatEvent{
		Type:        models.EventMessageSent,
		ChatID:      chatID,
		MessageID:   msg.ID,
		UserID:      sender.ID,
		RecipientID: recipient.ID,
	})
	return snapshot
}

// GetChats returns every chat the user participates in, in creation order.
func (s *ChatService) GetChats(ctx context.Context, userID int) []models.Chat {
	_, span := s.tracer.Start(ctx, "chat.GetChats", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	chats := s.chatsForLocked(userID)
	out := make([]models.Chat, 0, len(chats))
	for _, chat := range chats {
		out = append(out, chat.Clone())
	}
	observability.ObserveOperation("get_chats", resultOK)
	return out
}

// GetUnreadChatsCount returns how many of the user's chats have a positive
// unread counter.
func (s *ChatService) GetUnreadChatsCount(ctx context.Context, userID int) int {
	_, span := s.tracer.Start(ctx, "chat.GetUnreadChatsCount", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, chat := range s.chatsForLocked(userID) {
		if chat.UnreadCount > 0 {
			count++
		}
	}
	observability.ObserveOperation("get_unread_chats_count", resultOK)
	return count
}

// GetMessages marks every unread message addressed to recipientID as read and
// returns the last count messages of the chat, whatever their recipient.
func (s *ChatService) GetMessages(ctx context.Context, chatID, recipientID, count int) []models.Message {
	ctx, span := s.tracer.Start(ctx, "chat.GetMessages", trace.WithAttributes(
		attribute.Int("chat.id", chatID),
		attribute.Int("user.id", recipientID),
		attribute.Int("count", count),
	))
	defer span.End()

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		observability.ObserveOperation("get_messages", resultMiss)
		return []models.Message{}
	}

	marked := 0
	for i := range chat.Messages {
		msg := &chat.Messages[i]
		if !msg.IsRead && msg.Recipient.ID == recipientID {
			msg.IsRead = true
			marked++
		}
	}
	chat.UnreadCount = countUnread(chat.Messages, recipientID)
	result := tail(chat.Messages, count)
	s.mu.Unlock()

	s.log.Debug("messages read",
		zap.Int("chat_id", chatID),
		zap.Int("recipient_id", recipientID),
		zap.Int("marked_read", marked),
		zap.Int("returned", len(result)),
	)
	observability.ObserveOperation("get_messages", resultOK)
	if marked > 0 {
		s.emit(ctx, models.ChatEvent{Type: models.EventMessagesRead, ChatID: chatID, UserID: recipientID, MarkedRead: marked})
	}
	return result
}

// GetLastMessages returns, for each of the user's chats, the content of its
// most recent message or NoMessagesPlaceholder.
func (s *ChatService) GetLastMessages(ctx context.Context, userID int) []string {
	_, span := s.tracer.Start(ctx, "chat.GetLastMessages", trace.WithAttributes(attribute.Int("user.id", userID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	chats := s.chatsForLocked(userID)
	out := make([]string, 0, len(chats))
	for _, chat := range chats {
		if msg, ok := chat.LastMessage(); ok {
			out = append(out, msg.Content)
			continue
		}
		out = append(out, NoMessagesPlaceholder)
	}
	observability.ObserveOperation("get_last_messages", resultOK)
	return out
}

// EditMessage replaces the content of the message with the given id.
func (s *ChatService) EditMessage(ctx context.Context, messageID int, newContent string) bool {
	ctx, span := s.tracer.Start(ctx, "chat.EditMessage", trace.WithAttributes(attribute.Int("message.id", messageID)))
	defer span.End()

	s.mu.Lock()
	chatID, found := 0, false
	for _, id := range s.order {
		chat := s.chats[id]
		if i := indexOfMessage(chat.Messages, messageID); i >= 0 {
			chat.Messages[i].Content = newContent
			chatID, found = id, true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		s.log.Debug("edit of unknown message", zap.Int("message_id", messageID))
		observability.ObserveOperation("edit_message", resultMiss)
		return false
	}

	s.log.Debug("message edited", zap.Int("chat_id", chatID), zap.Int("message_id", messageID))
	observability.ObserveOperation("edit_message", resultOK)
	s.emit(ctx, models.ChatEvent{Type: models.EventMessageEdited, ChatID: chatID, MessageID: messageID})
	return true
}

// DeleteMessage removes the message with the given id from whichever chat
// holds it. The chat's unread counter is left as is.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID int) bool {
	ctx, span := s.tracer.Start(ctx, "chat.DeleteMessage", trace.WithAttributes(attribute.Int("message.id", messageID)))
	defer span.End()

	s.mu.Lock()
	chatID, found := 0, false
	for _, id := range s.order {
		chat := s.chats[id]
		if i := indexOfMessage(chat.Messages, messageID); i >= 0 {
			chat.Messages = slices.Delete(chat.Messages, i, i+1)
			s.messageCount--
			chatID, found = id, true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		s.log.Debug("delete of unknown message", zap.Int("message_id", messageID))
		observability.ObserveOperation("delete_message", resultMiss)
		return false
	}

	s.log.Debug("message deleted", zap.Int("chat_id", chatID), zap.Int("message_id", messageID))
	observability.ObserveOperation("delete_message", resultOK)
	s.emit(ctx, models.ChatEvent{Type: models.EventMessageDeleted, ChatID: chatID, MessageID: messageID})
	return true
}

// DeleteChat removes the chat together with its messages.
func (s *ChatService) DeleteChat(ctx context.Context, chatID int) bool {
	ctx, span := s.tracer.Start(ctx, "chat.DeleteChat", trace.WithAttributes(attribute.Int("chat.id", chatID)))
	defer span.End()

	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if ok {
		delete(s.chats, chatID)
		if i := slices.Index(s.order, chatID); i >= 0 {
			s.order = slices.Delete(s.order, i, i+1)
		}
		s.messageCount -= len(chat.Messages)
	}
	s.mu.Unlock()

	if !ok {
		observability.ObserveOperation("delete_chat", resultMiss)
		return false
	}

	s.log.Debug("chat deleted", zap.Int("chat_id", chatID), zap.Int("messages", len(chat.Messages)))
	observability.ObserveOperation("delete_chat", resultOK)
	s.emit(ctx, models.ChatEvent{Type: models.EventChatDeleted, ChatID: chatID})
	return true
}

// ChatCount returns the number of chats in the store.
func (s *ChatService) ChatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

// MessageCount returns the number of messages across all chats.
func (s *ChatService) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageCount
}

// HasChat reports whether a chat with the id exists.
func (s *ChatService) HasChat(chatID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.chats[chatID]
	return ok
}

// Chat returns a snapshot of the chat with the given id.
func (s *ChatService) Chat(chatID int) (models.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, false
	}
	return chat.Clone(), true
}

// UnreadCount returns the chat's unread counter; ok is false for an unknown chat.
func (s *ChatService) UnreadCount(chatID int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return 0, false
	}
	return chat.UnreadCount, true
}

func (s *ChatService) getOrCreateChatLocked(chatID int, user1, user2 models.User) (*models.Chat, bool) {
	if chat, ok := s.chats[chatID]; ok {
		return chat, false
	}
	chat := &models.Chat{ID: chatID, User1: user1, User2: user2}
	s.chats[chatID] = chat
	s.order = append(s.order, chatID)
	return chat, true
}

func (s *ChatService) chatsForLocked(userID int) []*models.Chat {
	var out []*models.Chat
	for _, id := range s.order {
		if chat := s.chats[id]; chat.HasParticipant(userID) {
			out = append(out, chat)
		}
	}
	return out
}

func (s *ChatService) emit(ctx context.Context, event models.ChatEvent) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, event)
}

func countUnread(msgs []models.Message, recipientID int) int {
	n := 0
	for _, msg := range msgs {
		if !msg.IsRead && msg.Recipient.ID == recipientID {
			n++
		}
	}
	return n
}

func indexOfMessage(msgs []models.Message, messageID int) int {
	return slices.IndexFunc(msgs, func(m models.Message) bool { return m.ID == messageID })
}

// tail copies the last count messages.
func tail(msgs []models.Message, count int) []models.Message {
	if count <= 0 || len(msgs) == 0 {
		return []models.Message{}
	}
	if count > len(msgs) {
		count = len(msgs)
	}
	out := make([]models.Message, count)
	copy(out, msgs[len(msgs)-count:])
	return out
}
