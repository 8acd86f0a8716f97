package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/services"
)

type publishCoordinator interface {
	Validate(req models.PublishRequest) models.PublishValidation
	Prepare(ctx context.Context, userID uuid.UUID, req models.PublishRequest) (*models.PublishResult, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PublishHistory, error)
	ScheduledPosts(ctx context.Context, userID uuid.UUID) ([]*models.ScheduledPost, error)
	CancelScheduled(ctx context.Context, userID, id uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*models.PublishStats, error)
}

type PublishHandler struct {
	publish publishCoordinator
}

func NewPublishHandler(publish publishCoordinator) *PublishHandler {
	return &PublishHandler{publish: publish}
}

func decodePublish(w http.ResponseWriter, r *http.Request) (models.PublishRequest, bool) {
	var req models.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return req, false
	}
	return req, true
}

// POST /api/v1/publish/validate
func (h *PublishHandler) Validate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePublish(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.publish.Validate(req))
}

// POST /api/v1/publish/prepare
//
// Platforms without a publish API still answer 200, with manual_required
// set and the clipboard payload attached.
func (h *PublishHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePublish(w, r)
	if !ok {
		return
	}

	result, err := h.publish.Prepare(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil && !errors.Is(err, services.ErrManualActionRequired) {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/publish/clipboard
func (h *PublishHandler) Clipboard(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePublish(w, r)
	if !ok || !requireFields(w, r, map[string]string{"title": req.Title, "content": req.Content}) {
		return
	}

	html, err := services.RenderHTML(req.Content)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.Settings.Platform == models.PlatformNaver {
		html = services.NaverMarkup(html)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"clipboard_text": services.ClipboardText(req),
		"html":           html,
	})
}

// GET /api/v1/publish/history
func (h *PublishHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := h.publish.History(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.PublishHistory{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": history})
}

// GET /api/v1/publish/scheduled
func (h *PublishHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	posts, err := h.publish.ScheduledPosts(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.ScheduledPost{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": posts})
}

// DELETE /api/v1/publish/scheduled/{id}
func (h *PublishHandler) CancelScheduled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid scheduled post ID", r))
		return
	}

	if err := h.publish.CancelScheduled(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Scheduled post cancelled"})
}

// GET /api/v1/publish/stats
func (h *PublishHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.publish.Stats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
