package entities

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single post inside a thread. Immutable once created.
type Message struct {
	ID        string
	ThreadID  string
	SenderID  string
	Body      string
	CreatedAt time.Time
}

// NewMessage creates a message for the given thread.
func NewMessage(threadID, senderID, body string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}
