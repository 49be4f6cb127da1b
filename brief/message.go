package brief

import (
	"strconv"
	"sync"
	"time"
)

// Message is one turn of a brief conversation
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsAI      bool      `json:"isAI"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user turn with a timestamp-derived id
func NewUserMessage(content string, at time.Time) Message {
	return Message{
		ID:        strconv.FormatInt(at.UnixMilli(), 10),
		Content:   content,
		IsAI:      false,
		Timestamp: at,
	}
}

// MessageStore is the ordered conversation log of one open brief
type MessageStore struct {
	mu        sync.Mutex
	messages  []Message
	observers []func([]Message)
	now       func() time.Time
}

// NewMessageStore creates an empty store
func NewMessageStore() *MessageStore {
	return &MessageStore{now: time.Now}
}

// OnChange registers fn to receive a copy of the log after every mutation
func (s *MessageStore) OnChange(fn func([]Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Append adds msg at the end of the log
func (s *MessageStore) Append(msg Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.notifyLocked()
}

// UpsertInProgress replaces the content of the message with id, or appends a
// new assistant message with that id. content is always the full text.
func (s *MessageStore) UpsertInProgress(id, content string) {
	s.mu.Lock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.notifyLocked()
			return
		}
	}
	s.messages = append(s.messages, Message{
		ID:        id,
		Content:   content,
		IsAI:      true,
		Timestamp: s.now(),
	})
	s.notifyLocked()
}

// Replace swaps the whole log, used when a conversation is reloaded
func (s *MessageStore) Replace(msgs []Message) {
	s.mu.Lock()
	s.messages = append([]Message(nil), msgs...)
	s.notifyLocked()
}

// Messages returns a snapshot of the log
func (s *MessageStore) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Len returns the number of messages
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent message of the given origin
func (s *MessageStore) Last(isAI bool) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].IsAI == isAI {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

// notifyLocked releases the lock before calling observers so they may read the store
func (s *MessageStore) notifyLocked() {
	snapshot := append([]Message(nil), s.messages...)
	observers := append([]func([]Message){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
