// Package ports declares the interfaces the application layer depends on.
// Implementations live under infrastructure; the services never know which
// backend is wired in.
package ports

import (
	"context"

	"mentorconnect-backend/domain/core/entities"
)

// ThreadRepository persists threads and their participant memberships.
// Absent threads surface as not-found application errors, never nil results.
type ThreadRepository interface {
	// Save persists a new thread together with its membership records.
	Save(ctx context.Context, thread *entities.Thread) error

	// GetByID retrieves a thread by its id.
	GetByID(ctx context.Context, id string) (*entities.Thread, error)

	// GetByParticipant retrieves every thread the user participates in.
	GetByParticipant(ctx context.Context, userID string) ([]*entities.Thread, error)

	// ListAll retrieves all threads.
	ListAll(ctx context.Context) ([]*entities.Thread, error)

	// AppendMessage atomically appends a message id to the thread's message
	// list and bumps UpdatedAt.
	AppendMessage(ctx context.Context, threadID, messageID string) error

	// SetStatus updates the thread status and bumps UpdatedAt.
	SetStatus(ctx context.Context, threadID string, status entities.ThreadStatus) error

	// Delete removes the thread and its membership records.
	Delete(ctx context.Context, threadID string) error
}

// MessageRepository persists messages, scoped by thread.
type MessageRepository interface {
	Save(ctx context.Context, message *entities.Message) error

	// GetByThread returns the thread's messages in creation order.
	GetByThread(ctx context.Context, threadID string) ([]*entities.Message, error)

	// Delete removes a single message. Deleting an absent message succeeds.
	Delete(ctx context.Context, message *entities.Message) error

	// DeleteByThread removes every message belonging to the thread.
	DeleteByThread(ctx context.Context, threadID string) error
}

// UserRepository reads platform accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByIDs resolves a batch of user ids. Unknown ids are skipped, not
	// errors: a thread must stay readable after a participant is deleted.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// ListByRole returns every user holding the given role.
	ListByRole(ctx context.Context, role string) ([]*entities.User, error)

	Delete(ctx context.Context, id string) error
}

// StudentProfileRepository persists student registration records.
type StudentProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entities.StudentProfile, error)

	// Save creates or replaces the profile for its user.
	Save(ctx context.Context, profile *entities.StudentProfile) error

	DeleteByUserID(ctx context.Context, userID string) error
}
