package services

import "time"

// ParticipantView is the minimal projection of a user embedded in cached
// thread representations.
type ParticipantView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// MessageView is the wire and cache form of a message.
type MessageView struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadDetail is the fully populated form of a single thread: participants
// resolved to minimal projections and all message references resolved. This
// is what lives under the thread:{id} cache key.
type ThreadDetail struct {
	ID           string            `json:"id"`
	AuthorID     string            `json:"author_id"`
	Title        string            `json:"title"`
	Topic        string            `json:"topic"`
	Status       string            `json:"status"`
	Participants []ParticipantView `json:"participants"`
	Messages     []MessageView     `json:"messages"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ThreadSummary is the list form of a thread: participants resolved but
// message references left as ids. This is what lives under the
// threads:user:{id} cache key, so it must stay plain and self-contained.
type ThreadSummary struct {
	ID           string            `json:"id"`
	AuthorID     string            `json:"author_id"`
	Title        string            `json:"title"`
	Topic        string            `json:"topic"`
	Status       string            `json:"status"`
	Participants []ParticipantView `json:"participants"`
	MessageIDs   []string          `json:"message_ids"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// StudentRow is the flat projection returned by the student listing: account
// fields joined with the profile fields mentors filter on.
type StudentRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Sem        string `json:"sem,omitempty"`
	USN        string `json:"usn,omitempty"`
}
