package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/repository"
)

type memPublishStore struct {
	mu         sync.Mutex
	history    []*models.PublishHistory
	scheduled  []*models.ScheduledPost
	historyErr error
}

func (m *memPublishStore) CreateHistory(ctx context.Context, h *models.PublishHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return m.historyErr
	}
	h.ID = uuid.New()
	m.history = append(m.history, h)
	return nil
}

func (m *memPublishStore) ListHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PublishHistory, error) {
	return m.history, nil
}

func (m *memPublishStore) CreateScheduled(ctx context.Context, p *models.ScheduledPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	m.scheduled = append(m.scheduled, p)
	return nil
}

func (m *memPublishStore) ListPendingScheduled(ctx context.Context, userID uuid.UUID) ([]*models.ScheduledPost, error) {
	var out []*models.ScheduledPost
	for _, p := range m.scheduled {
		if p.UserID == userID && p.Status == "pending" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPublishStore) CancelScheduled(ctx context.Context, userID, id uuid.UUID) error {
	for _, p := range m.scheduled {
		if p.ID == id && p.UserID == userID && p.Status == "pending" {
			p.Status = "cancelled"
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memPublishStore) Stats(ctx context.Context, userID uuid.UUID) (*models.PublishStats, error) {
	return &models.PublishStats{Total: len(m.history)}, nil
}

var publishNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPublishServiceForTest() (*PublishService, *memPublishStore) {
	store := &memPublishStore{}
	svc := NewPublishService(store)
	svc.now = func() time.Time { return publishNow }
	return svc, store
}

func validRequest(platform models.PublishPlatform) models.PublishRequest {
	return models.PublishRequest{
		PostID:  uuid.New(),
		Title:   "제주도 여행기",
		Content: "# 첫째 날\n\n" + strings.Repeat("제주 바다를 걸었다. ", 20) + "\n\n```\ncode\n```\n\n![바다](https://img/sea.jpg)",
		Settings: models.PublishSettings{
			Platform: platform,
			Tags:     []string{"제주", "여행"},
			Category: "여행",
		},
	}
}

func TestValidate(t *testing.T) {
	svc, _ := newPublishServiceForTest()
	past := publishNow.Add(-time.Minute)
	future := publishNow.Add(time.Hour)
	manyTags := make([]string, 11)

	tests := []struct {
		name     string
		mutate   func(r *models.PublishRequest)
		errors   int
		warnings int
		contains string
	}{
		{"valid", func(r *models.PublishRequest) {}, 0, 0, ""},
		{"title of 101 characters", func(r *models.PublishRequest) { r.Title = strings.Repeat("a", 101) }, 1, 0, "length"},
		{"title of 100 korean characters", func(r *models.PublishRequest) { r.Title = strings.Repeat("가", 100) }, 0, 0, ""},
		{"empty title", func(r *models.PublishRequest) { r.Title = "  " }, 1, 0, "title"},
		{"content of 50 characters", func(r *models.PublishRequest) { r.Content = strings.Repeat("b", 50) }, 0, 1, ""},
		{"empty content", func(r *models.PublishRequest) { r.Content = "" }, 1, 0, "content"},
		{"eleven tags", func(r *models.PublishRequest) { r.Settings.Tags = manyTags }, 0, 1, ""},
		{"schedule in the past", func(r *models.PublishRequest) { r.Settings.ScheduleDate = &past }, 1, 0, "future"},
		{"schedule exactly now", func(r *models.PublishRequest) { now := publishNow; r.Settings.ScheduleDate = &now }, 1, 0, "future"},
		{"schedule in the future", func(r *models.PublishRequest) { r.Settings.ScheduleDate = &future }, 0, 0, ""},
		{"unknown platform", func(r *models.PublishRequest) { r.Settings.Platform = "medium" }, 1, 0, "platform"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(models.PlatformTistory)
			tt.mutate(&req)
			v := svc.Validate(req)
			if len(v.Errors) != tt.errors || len(v.Warnings) != tt.warnings {
				t.Fatalf("errors=%v warnings=%v, want %d errors and %d warnings", v.Errors, v.Warnings, tt.errors, tt.warnings)
			}
			if v.IsValid != (tt.errors == 0) {
				t.Errorf("IsValid = %t", v.IsValid)
			}
			if tt.contains != "" && !strings.Contains(v.Errors[0], tt.contains) {
				t.Errorf("error %q does not mention %q", v.Errors[0], tt.contains)
			}
		})
	}
}

func TestPrepare_InvalidReturnsAllErrors(t *testing.T) {
	svc, store := newPublishServiceForTest()
	req := validRequest(models.PlatformVelog)
	req.Title = ""
	req.Content = ""

	_, err := svc.Prepare(context.Background(), uuid.New(), req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("errors = %v, want 2", verr.Errors)
	}
	if len(store.history) != 0 {
		t.Errorf("no history should be written for an invalid request")
	}
}

func TestPrepare_RequiresPlatform(t *testing.T) {
	svc, _ := newPublishServiceForTest()
	_, err := svc.Prepare(context.Background(), uuid.New(), validRequest(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPrepare_SchedulesWithoutPublishing(t *testing.T) {
	svc, store := newPublishServiceForTest()
	userID := uuid.New()
	req := validRequest(models.PlatformNaver)
	when := publishNow.Add(24 * time.Hour)
	req.Settings.ScheduleDate = &when

	res, err := svc.Prepare(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !res.Success || !res.Scheduled {
		t.Errorf("result = %+v", res)
	}
	if len(store.scheduled) != 1 || store.scheduled[0].Status != "pending" || !store.scheduled[0].ScheduleDate.Equal(when) {
		t.Fatalf("scheduled = %+v", store.scheduled)
	}
	if len(store.history) != 0 {
		t.Errorf("scheduling should not write publish history")
	}

	pending, _ := svc.ScheduledPosts(context.Background(), userID)
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}
	if err := svc.CancelScheduled(context.Background(), userID, pending[0].ID); err != nil {
		t.Fatalf("CancelScheduled: %v", err)
	}
	if err := svc.CancelScheduled(context.Background(), userID, pending[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second cancel err = %v, want ErrNotFound", err)
	}
}

func TestPrepare_NaverRequiresManualAction(t *testing.T) {
	svc, store := newPublishServiceForTest()
	req := validRequest(models.PlatformNaver)

	res, err := svc.Prepare(context.Background(), uuid.New(), req)
	if !errors.Is(err, ErrManualActionRequired) {
		t.Fatalf("err = %v, want ErrManualActionRequired", err)
	}
	if res == nil || !res.ManualRequired || res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !strings.HasPrefix(res.ClipboardText, req.Title+"\n\n") || !strings.Contains(res.ClipboardText, "Tags: 제주, 여행") {
		t.Errorf("clipboard text = %q", res.ClipboardText)
	}
	if !strings.Contains(res.HTML, `<pre class="ke-code">`) || !strings.Contains(res.HTML, `data-ke-mobilestyle="widthOrigin"`) {
		t.Errorf("html is not adapted for naver:\n%s", res.HTML)
	}
	if len(store.history) != 1 || store.history[0].Status != models.PublishStatusManual {
		t.Errorf("history = %+v", store.history)
	}
}

func TestPrepare_DirectPublishPlatform(t *testing.T) {
	svc, store := newPublishServiceForTest()
	store.historyErr = errors.New("db down")

	res, err := svc.Prepare(context.Background(), uuid.New(), validRequest(models.PlatformTistory))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if !res.Success || res.ManualRequired || res.PublishedAt == nil || !res.PublishedAt.Equal(publishNow) {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(res.HTML, "<h1>첫째 날</h1>") {
		t.Errorf("html = %s", res.HTML)
	}
}

func TestCapabilities(t *testing.T) {
	svc, _ := newPublishServiceForTest()
	if c, ok := svc.Capability(models.PlatformNaver); !ok || c.DirectPublish {
		t.Errorf("naver capability = %+v", c)
	}
	for _, p := range []models.PublishPlatform{models.PlatformTistory, models.PlatformVelog} {
		if c, ok := svc.Capability(p); !ok || !c.DirectPublish {
			t.Errorf("%s capability = %+v", p, c)
		}
	}
}
