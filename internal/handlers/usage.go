package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/middleware"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/queue"
)

const (
	defaultUsageDays = 30
	maxUsageDays     = 365
)

type usageReader interface {
	Stats(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageStats, error)
}

type queueStatuser interface {
	Status() queue.Status
}

type cacheStatuser interface {
	Stats() cache.Stats
}

type UsageHandler struct {
	usage usageReader
	queue queueStatuser
	cache cacheStatuser
	now   func() time.Time
}

func NewUsageHandler(usage usageReader, q queueStatuser, c cacheStatuser) *UsageHandler {
	return &UsageHandler{usage: usage, queue: q, cache: c, now: time.Now}
}

// GET /api/v1/usage/stats?days=30
func (h *UsageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = defaultUsageDays
	}
	if days > maxUsageDays {
		days = maxUsageDays
	}

	since := h.now().AddDate(0, 0, -days)
	stats, err := h.usage.Stats(r.Context(), middleware.GetUserID(r.Context()), since)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"stats": stats,
	})
}

// GET /api/v1/queue/status
func (h *UsageHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	cs := h.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"queue": h.queue.Status(),
		"cache": map[string]interface{}{
			"entries": cs.Entries,
			"hits":    cs.Hits,
			"misses":  cs.Misses,
		},
	})
}
