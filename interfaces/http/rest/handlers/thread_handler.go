// Package handlers contains the REST handlers. Handlers decode and validate
// requests, call a service, and let the shared error handler translate
// failures; they never touch the store or cache directly.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mentorconnect-backend/application/services"
	"mentorconnect-backend/pkg/auth"
	"mentorconnect-backend/pkg/common"
	apperrors "mentorconnect-backend/pkg/errors"
	"mentorconnect-backend/pkg/utils"
)

const maxRequestBody = 1 << 20

// ThreadHandler serves the thread endpoints.
type ThreadHandler struct {
	threads *services.ThreadService
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

// NewThreadHandler creates a thread handler.
func NewThreadHandler(threads *services.ThreadService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *ThreadHandler {
	return &ThreadHandler{threads: threads, errors: errHandler, logger: logger}
}

// CreateThreadRequest is the body of POST /threads.
type CreateThreadRequest struct {
	Title          string   `json:"title" validate:"required,min=1,max=200"`
	Topic          string   `json:"topic" validate:"omitempty,max=200"`
	ParticipantIDs []string `json:"participantIds" validate:"omitempty,max=50,dive,required"`
}

// SendMessageRequest is the body of POST /threads/{threadID}/messages.
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=10000"`
}

// GetThread handles GET /threads/{threadID}.
func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		common.RespondError(w, http.StatusBadRequest, "thread id is required")
		return
	}

	detail, fromCache, err := h.threads.GetThread(r.Context(), threadID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if fromCache {
		common.RespondCached(w, http.StatusOK, detail)
		return
	}
	common.RespondJSON(w, http.StatusOK, detail)
}

// ListUserThreads handles GET /users/{userID}/threads.
func (h *ThreadHandler) ListUserThreads(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		common.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	summaries, fromCache, err := h.threads.GetThreadsForUser(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if fromCache {
		common.RespondCached(w, http.StatusOK, summaries)
		return
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// ListThreads handles GET /threads.
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.threads.ListAllThreads(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// CreateThread handles POST /threads. The caller becomes the author and is
// always a participant.
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req CreateThreadRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.threads.CreateThread(r.Context(), user.UserID, req.ParticipantIDs, req.Title, req.Topic)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, summary)
}

// SendMessage handles POST /threads/{threadID}/messages.
func (h *ThreadHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		common.RespondError(w, http.StatusBadRequest, "thread id is required")
		return
	}

	var req SendMessageRequest
	if err := common.ParseJSONBody(r, &req, maxRequestBody); err != nil {
		common.RespondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	message, err := h.threads.SendMessage(r.Context(), threadID, user.UserID, req.Body)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, message)
}

// OpenThread handles PATCH /threads/{threadID}/open.
func (h *ThreadHandler) OpenThread(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.threads.OpenThread)
}

// CloseThread handles PATCH /threads/{threadID}/close.
func (h *ThreadHandler) CloseThread(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.threads.CloseThread)
}

// DeleteThread handles DELETE /threads/{threadID}.
func (h *ThreadHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		common.RespondError(w, http.StatusBadRequest, "thread id is required")
		return
	}

	if err := h.threads.DeleteThread(r.Context(), threadID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ThreadHandler) setStatus(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, threadID string) (*services.ThreadSummary, error),
) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		common.RespondError(w, http.StatusBadRequest, "thread id is required")
		return
	}

	summary, err := op(r.Context(), threadID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summary)
}
