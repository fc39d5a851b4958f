package entities

import (
	"time"

	"github.com/google/uuid"
)

// ThreadStatus represents the lifecycle state of a thread.
type ThreadStatus string

const (
	ThreadStatusOpen   ThreadStatus = "open"
	ThreadStatusClosed ThreadStatus = "closed"
)

// IsValid reports whether the status is one of the known states.
func (s ThreadStatus) IsValid() bool {
	return s == ThreadStatusOpen || s == ThreadStatusClosed
}

// Thread is a conversation between a mentor and one or more students.
// Messages are referenced by id, never embedded.
type Thread struct {
	ID             string
	AuthorID       string
	ParticipantIDs []string
	Title          string
	Topic          string
	Status         ThreadStatus
	MessageIDs     []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewThread creates an open thread. The author is always a participant and
// participant ids are de-duplicated while preserving order.
func NewThread(authorID string, participantIDs []string, title, topic string) *Thread {
	now := time.Now().UTC()
	return &Thread{
		ID:             uuid.New().String(),
		AuthorID:       authorID,
		ParticipantIDs: dedupeParticipants(authorID, participantIDs),
		Title:          title,
		Topic:          topic,
		Status:         ThreadStatusOpen,
		MessageIDs:     []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasParticipant reports whether the given user takes part in the thread.
func (t *Thread) HasParticipant(userID string) bool {
	for _, id := range t.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsClosed reports whether the thread no longer accepts messages.
func (t *Thread) IsClosed() bool {
	return t.Status == ThreadStatusClosed
}

func dedupeParticipants(authorID string, ids []string) []string {
	seen := map[string]struct{}{authorID: {}}
	out := []string{authorID}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
