package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mentorconnect-backend/application/ports"
	"mentorconnect-backend/domain/core/entities"
	apperrors "mentorconnect-backend/pkg/errors"
	"mentorconnect-backend/pkg/observability"
)

// DefaultCacheTTL bounds how long a cached thread representation may outlive
// the store state it was built from.
const DefaultCacheTTL = time.Hour

// ThreadService mediates all thread reads and writes. Reads are cache-aside:
// check the cache, fall back to the store on a miss, populate with a TTL.
// Every mutating operation invalidates the affected cache entries before it
// returns; with full fan-out to each participant's list key, since cached
// summaries embed thread data that the write just changed.
//
// Cache failures never block the store: a failed Get is a miss, a failed Set
// or Delete is logged and absorbed. A stale entry left behind by a failed
// invalidation self-heals at TTL expiry.
type ThreadService struct {
	threads  ports.ThreadRepository
	messages ports.MessageRepository
	users    ports.UserRepository
	cache    ports.Cache
	ttl      time.Duration
	metrics  *observability.CacheMetrics
	logger   *zap.Logger
}

// NewThreadService creates a thread service. A zero ttl falls back to
// DefaultCacheTTL; metrics may be nil.
func NewThreadService(
	threads ports.ThreadRepository,
	messages ports.MessageRepository,
	users ports.UserRepository,
	cache ports.Cache,
	ttl time.Duration,
	metrics *observability.CacheMetrics,
	logger *zap.Logger,
) *ThreadService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThreadService{
		threads:  threads,
		messages: messages,
		users:    users,
		cache:    cache,
		ttl:      ttl,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetThread returns the fully populated thread. The second return value
// reports whether the result was served from cache.
func (s *ThreadService) GetThread(ctx context.Context, threadID string) (*ThreadDetail, bool, error) {
	key := threadKey(threadID)

	if raw, found := s.cacheGet(ctx, key); found {
		var detail ThreadDetail
		if err := decodeCacheValue(raw, &detail); err == nil {
			s.metrics.Hit(observability.KeyFamilyThread)
			return &detail, true, nil
		}
		// Foreign schema or corrupt blob; refetch and overwrite.
		s.logger.Debug("discarding undecodable cache entry", zap.String("key", key))
	}
	s.metrics.Miss(observability.KeyFamilyThread)

	detail, err := s.loadThreadDetail(ctx, threadID)
	if err != nil {
		return nil, false, err
	}

	s.cacheSet(ctx, key, detail)
	return detail, false, nil
}

// GetThreadsForUser returns summaries of every thread the user participates
// in, cache-aside under threads:user:{id}.
func (s *ThreadService) GetThreadsForUser(ctx context.Context, userID string) ([]ThreadSummary, bool, error) {
	key := userThreadsKey(userID)

	if raw, found := s.cacheGet(ctx, key); found {
		var summaries []ThreadSummary
		if err := decodeCacheValue(raw, &summaries); err == nil {
			s.metrics.Hit(observability.KeyFamilyUserThreads)
			return summaries, true, nil
		}
		s.logger.Debug("discarding undecodable cache entry", zap.String("key", key))
	}
	s.metrics.Miss(observability.KeyFamilyUserThreads)

	s.metrics.StoreRead()
	threads, err := s.threads.GetByParticipant(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	summaries, err := s.buildSummaries(ctx, threads)
	if err != nil {
		return nil, false, err
	}

	s.cacheSet(ctx, key, summaries)
	return summaries, false, nil
}

// ListAllThreads returns summaries of every thread in the store. Admin-facing
// and rarely called, so it bypasses the cache.
func (s *ThreadService) ListAllThreads(ctx context.Context) ([]ThreadSummary, error) {
	threads, err := s.threads.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildSummaries(ctx, threads)
}

// CreateThread creates an open thread. There is no pre-existing entry for the
// new thread, but every participant's list key is invalidated so their next
// list read repopulates with the new thread included.
func (s *ThreadService) CreateThread(ctx context.Context, authorID string, participantIDs []string, title, topic string) (*ThreadSummary, error) {
	thread := entities.NewThread(authorID, participantIDs, title, topic)
	if err := s.threads.Save(ctx, thread); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userThreadsKeys(thread.ParticipantIDs)...)

	participants, err := s.resolveParticipants(ctx, thread.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	summary := summaryFromThread(thread, participants)
	return &summary, nil
}

// SendMessage creates a message and appends its reference to the thread.
// Invalidates the thread key and, because cached list summaries embed the
// thread's data, every participant's list key as well.
func (s *ThreadService) SendMessage(ctx context.Context, threadID, senderID, body string) (*MessageView, error) {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsClosed() {
		return nil, apperrors.NewConflictError("thread is closed")
	}

	message := entities.NewMessage(threadID, senderID, body)
	if err := s.messages.Save(ctx, message); err != nil {
		return nil, err
	}
	if err := s.threads.AppendMessage(ctx, threadID, message.ID); err != nil {
		// The thread vanished between the read and the append; remove the
		// message so it does not sit orphaned in the store.
		if delErr := s.messages.Delete(ctx, message); delErr != nil {
			s.logger.Warn("failed to remove orphaned message",
				zap.String("message_id", message.ID),
				zap.String("thread_id", threadID),
				zap.Error(delErr))
		}
		return nil, err
	}

	keys := append([]string{threadKey(threadID)}, userThreadsKeys(thread.ParticipantIDs)...)
	s.invalidate(ctx, keys...)

	view := messageView(message)
	return &view, nil
}

// OpenThread reopens a closed thread.
func (s *ThreadService) OpenThread(ctx context.Context, threadID string) (*ThreadSummary, error) {
	return s.setStatus(ctx, threadID, entities.ThreadStatusOpen)
}

// CloseThread closes a thread to further messages.
func (s *ThreadService) CloseThread(ctx context.Context, threadID string) (*ThreadSummary, error) {
	return s.setStatus(ctx, threadID, entities.ThreadStatusClosed)
}

// DeleteThread removes the thread, its messages and memberships, and every
// cache entry that embedded it.
func (s *ThreadService) DeleteThread(ctx context.Context, threadID string) error {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return err
	}

	if err := s.messages.DeleteByThread(ctx, threadID); err != nil {
		return err
	}
	if err := s.threads.Delete(ctx, threadID); err != nil {
		return err
	}

	keys := append([]string{threadKey(threadID)}, userThreadsKeys(thread.ParticipantIDs)...)
	s.invalidate(ctx, keys...)
	return nil
}

func (s *ThreadService) setStatus(ctx context.Context, threadID string, status entities.ThreadStatus) (*ThreadSummary, error) {
	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	if err := s.threads.SetStatus(ctx, threadID, status); err != nil {
		return nil, err
	}
	thread.Status = status
	thread.UpdatedAt = time.Now().UTC()

	keys := append([]string{threadKey(threadID)}, userThreadsKeys(thread.ParticipantIDs)...)
	s.invalidate(ctx, keys...)

	participants, err := s.resolveParticipants(ctx, thread.ParticipantIDs)
	if err != nil {
		return nil, err
	}
	summary := summaryFromThread(thread, participants)
	return &summary, nil
}

// loadThreadDetail is the miss path for GetThread: one read sequence against
// the store with participants and messages resolved.
func (s *ThreadService) loadThreadDetail(ctx context.Context, threadID string) (*ThreadDetail, error) {
	s.metrics.StoreRead()

	thread, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}

	participants, err := s.resolveParticipants(ctx, thread.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.GetByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView(m))
	}

	return &ThreadDetail{
		ID:           thread.ID,
		AuthorID:     thread.AuthorID,
		Title:        thread.Title,
		Topic:        thread.Topic,
		Status:       string(thread.Status),
		Participants: participants,
		Messages:     views,
		CreatedAt:    thread.CreatedAt,
		UpdatedAt:    thread.UpdatedAt,
	}, nil
}

func (s *ThreadService) buildSummaries(ctx context.Context, threads []*entities.Thread) ([]ThreadSummary, error) {
	idSet := make(map[string]struct{})
	var ids []string
	for _, t := range threads {
		for _, pid := range t.ParticipantIDs {
			if _, ok := idSet[pid]; !ok {
				idSet[pid] = struct{}{}
				ids = append(ids, pid)
			}
		}
	}

	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for _, t := range threads {
		summaries = append(summaries, summaryFromThread(t, participantViews(t.ParticipantIDs, byID)))
	}
	return summaries, nil
}

func (s *ThreadService) resolveParticipants(ctx context.Context, ids []string) ([]ParticipantView, error) {
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return participantViews(ids, byID), nil
}

// cacheGet treats any cache failure as a miss. A timed-out cache is never
// evidence of absence.
func (s *ThreadService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.Error()
		s.logger.Warn("cache get failed, falling back to store",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return raw, found
}

func (s *ThreadService) cacheSet(ctx context.Context, key string, value interface{}) {
	raw, err := encodeCacheValue(value)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.metrics.Error()
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate deletes the given keys. The store mutation has already
// succeeded, so a failed delete only means a stale entry may survive until
// its TTL; the operation still reports success to the caller.
func (s *ThreadService) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.metrics.Error()
			s.logger.Warn("cache invalidation failed, entry may be stale until TTL",
				zap.String("key", key), zap.Error(err))
			continue
		}
		s.metrics.Invalidation()
	}
}

func participantViews(ids []string, byID map[string]*entities.User) []ParticipantView {
	views := make([]ParticipantView, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			views = append(views, ParticipantView{ID: u.ID, Name: u.Name, Avatar: u.Avatar})
			continue
		}
		// Participant account no longer exists; keep the reference readable.
		views = append(views, ParticipantView{ID: id})
	}
	return views
}

func summaryFromThread(t *entities.Thread, participants []ParticipantView) ThreadSummary {
	messageIDs := t.MessageIDs
	if messageIDs == nil {
		messageIDs = []string{}
	}
	return ThreadSummary{
		ID:           t.ID,
		AuthorID:     t.AuthorID,
		Title:        t.Title,
		Topic:        t.Topic,
		Status:       string(t.Status),
		Participants: participants,
		MessageIDs:   messageIDs,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func messageView(m *entities.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
