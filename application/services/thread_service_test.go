package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorconnect-backend/domain/core/entities"
	apperrors "mentorconnect-backend/pkg/errors"
)

// fakeCache is a map-backed cache with injectable failures and call
// counters.
type fakeCache struct {
	entries map[string][]byte

	getErr error
	setErr error
	delErr error

	gets    int
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.deletes++
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// fakeThreadRepo serves threads from a map and counts store reads.
type fakeThreadRepo struct {
	threads map[string]*entities.Thread

	getByIDCalls int
	saveErr      error
	getErr       error
	appendErr    error
}

func newFakeThreadRepo(threads ...*entities.Thread) *fakeThreadRepo {
	r := &fakeThreadRepo{threads: map[string]*entities.Thread{}}
	for _, t := range threads {
		r.threads[t.ID] = t
	}
	return r
}

func (r *fakeThreadRepo) Save(ctx context.Context, thread *entities.Thread) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.threads[thread.ID] = thread
	return nil
}

func (r *fakeThreadRepo) GetByID(ctx context.Context, id string) (*entities.Thread, error) {
	r.getByIDCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	t, ok := r.threads[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("thread " + id + " not found")
	}
	cp := *t
	return &cp, nil
}

func (r *fakeThreadRepo) GetByParticipant(ctx context.Context, userID string) ([]*entities.Thread, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []*entities.Thread
	for _, t := range r.threads {
		if t.HasParticipant(userID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeThreadRepo) ListAll(ctx context.Context) ([]*entities.Thread, error) {
	var out []*entities.Thread
	for _, t := range r.threads {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeThreadRepo) AppendMessage(ctx context.Context, threadID, messageID string) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	t, ok := r.threads[threadID]
	if !ok {
		return apperrors.NewNotFoundError("thread " + threadID + " not found")
	}
	t.MessageIDs = append(t.MessageIDs, messageID)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeThreadRepo) SetStatus(ctx context.Context, threadID string, status entities.ThreadStatus) error {
	t, ok := r.threads[threadID]
	if !ok {
		return apperrors.NewNotFoundError("thread " + threadID + " not found")
	}
	t.Status = status
	return nil
}

func (r *fakeThreadRepo) Delete(ctx context.Context, threadID string) error {
	if _, ok := r.threads[threadID]; !ok {
		return apperrors.NewNotFoundError("thread " + threadID + " not found")
	}
	delete(r.threads, threadID)
	return nil
}

type fakeMessageRepo struct {
	byThread map[string][]*entities.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byThread: map[string][]*entities.Message{}}
}

func (r *fakeMessageRepo) Save(ctx context.Context, message *entities.Message) error {
	r.byThread[message.ThreadID] = append(r.byThread[message.ThreadID], message)
	return nil
}

func (r *fakeMessageRepo) GetByThread(ctx context.Context, threadID string) ([]*entities.Message, error) {
	return r.byThread[threadID], nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, message *entities.Message) error {
	kept := r.byThread[message.ThreadID][:0]
	for _, m := range r.byThread[message.ThreadID] {
		if m.ID != message.ID {
			kept = append(kept, m)
		}
	}
	r.byThread[message.ThreadID] = kept
	return nil
}

func (r *fakeMessageRepo) DeleteByThread(ctx context.Context, threadID string) error {
	delete(r.byThread, threadID)
	return nil
}

type fakeUserRepo struct {
	users map[string]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*entities.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user " + id + " not found")
	}
	return u, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	var out []*entities.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]*entities.User, error) {
	var out []*entities.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type serviceFixture struct {
	service  *ThreadService
	threads  *fakeThreadRepo
	messages *fakeMessageRepo
	users    *fakeUserRepo
	cache    *fakeCache
}

func newFixture(t *testing.T, threads ...*entities.Thread) *serviceFixture {
	t.Helper()

	users := newFakeUserRepo(
		&entities.User{ID: "mentor-1", Name: "Asha", Avatar: "a.png", Role: entities.RoleMentor},
		&entities.User{ID: "student-1", Name: "Ravi", Role: entities.RoleStudent},
		&entities.User{ID: "student-2", Name: "Meera", Role: entities.RoleStudent},
	)
	threadRepo := newFakeThreadRepo(threads...)
	messageRepo := newFakeMessageRepo()
	cache := newFakeCache()

	return &serviceFixture{
		service:  NewThreadService(threadRepo, messageRepo, users, cache, time.Hour, nil, nil),
		threads:  threadRepo,
		messages: messageRepo,
		users:    users,
		cache:    cache,
	}
}

func openThread(participants ...string) *entities.Thread {
	author := participants[0]
	return entities.NewThread(author, participants[1:], "Resume review", "careers")
}

func TestGetThread_MissPopulatesCacheThenHits(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)

	detail, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, thread.ID, detail.ID)
	assert.True(t, fx.cache.has(threadKey(thread.ID)))
	assert.Equal(t, 1, fx.threads.getByIDCalls)

	again, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, detail, again)
	// Hit path never touches the store.
	assert.Equal(t, 1, fx.threads.getByIDCalls)
}

func TestGetThread_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, _, err := fx.service.GetThread(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, fx.cache.entries)
}

func TestGetThread_CacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)
	fx.cache.getErr = errors.New("connection refused")

	detail, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, thread.ID, detail.ID)
}

func TestGetThread_StoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)
	fx.threads.getErr = apperrors.NewStoreError("provisioned throughput exceeded", errors.New("throttled"))

	_, _, err := fx.service.GetThread(ctx, thread.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStore))
}

func TestGetThread_SchemaVersionMismatchIsMiss(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)

	stale, err := json.Marshal(cacheEnvelope{Version: cacheSchemaVersion + 1, Data: json.RawMessage(`{"id":"other"}`)})
	require.NoError(t, err)
	fx.cache.entries[threadKey(thread.ID)] = stale

	detail, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, thread.ID, detail.ID)

	// The undecodable entry was overwritten with the current schema.
	var env cacheEnvelope
	require.NoError(t, json.Unmarshal(fx.cache.entries[threadKey(thread.ID)], &env))
	assert.Equal(t, cacheSchemaVersion, env.Version)
}

func TestGetThread_DeletedParticipantKeepsPlaceholder(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "ghost-user")
	fx := newFixture(t, thread)

	detail, _, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	require.Len(t, detail.Participants, 2)
	assert.Equal(t, "Asha", detail.Participants[0].Name)
	assert.Equal(t, ParticipantView{ID: "ghost-user"}, detail.Participants[1])
}

func TestGetThreadsForUser_CachesEmptyList(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	summaries, fromCache, err := fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Empty(t, summaries)
	// Absence of threads is a valid, cacheable result.
	assert.True(t, fx.cache.has(userThreadsKey("student-1")))

	_, fromCache, err = fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)
	assert.True(t, fromCache)
}

func TestGetThreadsForUser_HitSkipsStore(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)

	first, fromCache, err := fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, first, 1)
	assert.Equal(t, thread.ID, first[0].ID)

	second, fromCache, err := fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first, second)
}

func TestCreateThread_InvalidatesParticipantListsAndDedupes(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	// Warm both list keys, author repeated in participants.
	_, _, err := fx.service.GetThreadsForUser(ctx, "mentor-1")
	require.NoError(t, err)
	_, _, err = fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)

	summary, err := fx.service.CreateThread(ctx, "mentor-1", []string{"student-1", "mentor-1", "student-1"}, "Office hours", "general")
	require.NoError(t, err)
	require.Len(t, summary.Participants, 2)
	assert.Equal(t, "mentor-1", summary.Participants[0].ID)
	assert.Equal(t, "student-1", summary.Participants[1].ID)
	assert.Equal(t, string(entities.ThreadStatusOpen), summary.Status)

	assert.False(t, fx.cache.has(userThreadsKey("mentor-1")))
	assert.False(t, fx.cache.has(userThreadsKey("student-1")))

	// Next list read includes the new thread.
	summaries, fromCache, err := fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, summaries, 1)
	assert.Equal(t, summary.ID, summaries[0].ID)
}

func TestSendMessage_InvalidatesThreadAndEveryParticipantList(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1", "student-2")
	fx := newFixture(t, thread)

	// Warm all the keys a message send must clear.
	_, _, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	for _, uid := range thread.ParticipantIDs {
		_, _, err = fx.service.GetThreadsForUser(ctx, uid)
		require.NoError(t, err)
	}

	view, err := fx.service.SendMessage(ctx, thread.ID, "student-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, thread.ID, view.ThreadID)
	assert.Equal(t, "student-1", view.SenderID)

	assert.False(t, fx.cache.has(threadKey(thread.ID)))
	for _, uid := range thread.ParticipantIDs {
		assert.False(t, fx.cache.has(userThreadsKey(uid)), "list key for %s should be invalidated", uid)
	}

	// The reference landed on the thread and the next read sees it.
	detail, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, view.ID, detail.Messages[0].ID)
}

func TestSendMessage_ThreadNotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.SendMessage(context.Background(), "missing", "student-1", "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSendMessage_ClosedThreadRejected(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	thread.Status = entities.ThreadStatusClosed
	fx := newFixture(t, thread)

	_, err := fx.service.SendMessage(ctx, thread.ID, "student-1", "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.Empty(t, fx.messages.byThread[thread.ID])
}

func TestSendMessage_FailedAppendRemovesSavedMessage(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)
	// Thread deleted between the read and the append.
	fx.threads.appendErr = apperrors.NewNotFoundError("thread " + thread.ID + " not found")

	_, err := fx.service.SendMessage(ctx, thread.ID, "student-1", "hello")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, fx.messages.byThread[thread.ID], "message must not survive a failed append")
}

func TestSendMessage_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)
	fx.cache.delErr = errors.New("connection refused")

	view, err := fx.service.SendMessage(ctx, thread.ID, "student-1", "hello")
	require.NoError(t, err)
	require.NotNil(t, view)

	// The write reached the store even though every delete failed.
	stored := fx.threads.threads[thread.ID]
	require.Len(t, stored.MessageIDs, 1)
	assert.Equal(t, view.ID, stored.MessageIDs[0])
}

func TestCloseThread_InvalidatesAndBlocksSends(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)

	_, _, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)

	summary, err := fx.service.CloseThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entities.ThreadStatusClosed), summary.Status)
	assert.False(t, fx.cache.has(threadKey(thread.ID)))

	// Stale open status cannot be served.
	detail, fromCache, err := fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, string(entities.ThreadStatusClosed), detail.Status)

	_, err = fx.service.SendMessage(ctx, thread.ID, "student-1", "too late")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestOpenThread_ReopensClosedThread(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	thread.Status = entities.ThreadStatusClosed
	fx := newFixture(t, thread)

	summary, err := fx.service.OpenThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entities.ThreadStatusOpen), summary.Status)

	_, err = fx.service.SendMessage(ctx, thread.ID, "student-1", "back again")
	assert.NoError(t, err)
}

func TestSetStatus_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.CloseThread(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteThread_RemovesEverything(t *testing.T) {
	ctx := context.Background()
	thread := openThread("mentor-1", "student-1")
	fx := newFixture(t, thread)

	_, err := fx.service.SendMessage(ctx, thread.ID, "student-1", "hello")
	require.NoError(t, err)
	_, _, err = fx.service.GetThread(ctx, thread.ID)
	require.NoError(t, err)
	_, _, err = fx.service.GetThreadsForUser(ctx, "student-1")
	require.NoError(t, err)

	require.NoError(t, fx.service.DeleteThread(ctx, thread.ID))

	assert.False(t, fx.cache.has(threadKey(thread.ID)))
	assert.False(t, fx.cache.has(userThreadsKey("mentor-1")))
	assert.False(t, fx.cache.has(userThreadsKey("student-1")))
	assert.Empty(t, fx.messages.byThread[thread.ID])

	_, _, err = fx.service.GetThread(ctx, thread.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteThread_NotFound(t *testing.T) {
	fx := newFixture(t)

	err := fx.service.DeleteThread(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListAllThreads_BypassesCache(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, openThread("mentor-1", "student-1"), openThread("mentor-1", "student-2"))

	summaries, err := fx.service.ListAllThreads(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
	assert.Empty(t, fx.cache.entries)
}

func TestCacheEnvelopeRoundTrip(t *testing.T) {
	detail := ThreadDetail{ID: "t-1", Status: "open", Participants: []ParticipantView{{ID: "u-1", Name: "Asha"}}}

	raw, err := encodeCacheValue(detail)
	require.NoError(t, err)

	var decoded ThreadDetail
	require.NoError(t, decodeCacheValue(raw, &decoded))
	assert.Equal(t, detail, decoded)

	assert.Error(t, decodeCacheValue([]byte("not json"), &decoded))
}
