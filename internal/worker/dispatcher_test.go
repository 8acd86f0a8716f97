package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/services"
)

type fakeScheduleStore struct {
	mu         sync.Mutex
	posts      map[uuid.UUID]*models.ScheduledPost
	history    []*models.PublishHistory
	historyErr error
	// completeErr fails the first transition to "completed".
	completeErr error
}

func newFakeScheduleStore(posts ...*models.ScheduledPost) *fakeScheduleStore {
	s := &fakeScheduleStore{posts: make(map[uuid.UUID]*models.ScheduledPost)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *fakeScheduleStore) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ScheduledPost
	for _, p := range s.posts {
		if p.Status == "pending" && !p.ScheduleDate.After(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeScheduleStore) ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[id]
	if p == nil || p.Status != "pending" {
		return false, nil
	}
	p.Status = "processing"
	return true, nil
}

func (s *fakeScheduleStore) UpdateScheduledStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "completed" && s.completeErr != nil {
		err := s.completeErr
		s.completeErr = nil
		return err
	}
	s.posts[id].Status = status
	return nil
}

func (s *fakeScheduleStore) CreateHistory(ctx context.Context, h *models.PublishHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyErr != nil {
		return s.historyErr
	}
	s.history = append(s.history, h)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []models.WSMessage
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

var dispatchNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func scheduled(platform models.PublishPlatform, at time.Time) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		PostID:       uuid.New(),
		Title:        "예약 글",
		Platform:     platform,
		ScheduleDate: at,
		Status:       "pending",
	}
}

func newTestDispatcher(store ScheduleStore, notifier services.Notifier) *Dispatcher {
	d := NewDispatcher(store, services.NewPublishService(nil), notifier, time.Minute)
	d.now = func() time.Time { return dispatchNow }
	return d
}

func TestRunOnce_DispatchesOnlyDuePosts(t *testing.T) {
	due := scheduled(models.PlatformNaver, dispatchNow.Add(-time.Minute))
	later := scheduled(models.PlatformVelog, dispatchNow.Add(time.Hour))
	store := newFakeScheduleStore(due, later)
	notifier := &recordingNotifier{}

	if n := newTestDispatcher(store, notifier).RunOnce(context.Background()); n != 1 {
		t.Fatalf("handled = %d, want 1", n)
	}

	if store.posts[due.ID].Status != "completed" {
		t.Errorf("due post status = %s", store.posts[due.ID].Status)
	}
	if store.posts[later.ID].Status != "pending" {
		t.Errorf("future post status = %s", store.posts[later.ID].Status)
	}
	if len(store.history) != 1 || store.history[0].Status != models.PublishStatusManual {
		t.Errorf("history = %+v", store.history)
	}

	if len(notifier.msgs) != 1 {
		t.Fatalf("notifications = %d", len(notifier.msgs))
	}
	ev := notifier.msgs[0].Payload.(models.ScheduledPublishEvent)
	if !ev.ManualRequired || ev.EditorURL == "" || ev.Post.ID != due.ID {
		t.Errorf("event = %+v", ev)
	}
}

func TestRunOnce_DirectPublishPlatform(t *testing.T) {
	post := scheduled(models.PlatformTistory, dispatchNow)
	store := newFakeScheduleStore(post)
	notifier := &recordingNotifier{}

	newTestDispatcher(store, notifier).RunOnce(context.Background())

	if store.history[0].Status != models.PublishStatusPublishing {
		t.Errorf("history status = %s", store.history[0].Status)
	}
	if ev := notifier.msgs[0].Payload.(models.ScheduledPublishEvent); ev.ManualRequired {
		t.Errorf("tistory should not require manual action")
	}
}

func TestRunOnce_FailureReturnsPostToPending(t *testing.T) {
	post := scheduled(models.PlatformNaver, dispatchNow.Add(-time.Hour))
	store := newFakeScheduleStore(post)
	store.completeErr = errors.New("db down")
	notifier := &recordingNotifier{}
	d := newTestDispatcher(store, notifier)

	if n := d.RunOnce(context.Background()); n != 0 {
		t.Errorf("handled = %d, want 0", n)
	}
	if store.posts[post.ID].Status != "pending" {
		t.Errorf("status = %s, want pending for retry", store.posts[post.ID].Status)
	}
	if len(store.history) != 0 {
		t.Errorf("history = %d rows, want none before the post completes", len(store.history))
	}
	if len(notifier.msgs) != 0 {
		t.Errorf("no notification should be sent on failure")
	}

	if n := d.RunOnce(context.Background()); n != 1 {
		t.Fatalf("retry handled = %d, want 1", n)
	}
	if len(store.history) != 1 {
		t.Errorf("history = %d rows after retry, want exactly 1", len(store.history))
	}
}

func TestRunOnce_HistoryFailureStillCompletes(t *testing.T) {
	post := scheduled(models.PlatformVelog, dispatchNow.Add(-time.Hour))
	store := newFakeScheduleStore(post)
	store.historyErr = errors.New("db down")
	notifier := &recordingNotifier{}
	d := newTestDispatcher(store, notifier)

	if n := d.RunOnce(context.Background()); n != 1 {
		t.Errorf("handled = %d, want 1", n)
	}
	if store.posts[post.ID].Status != "completed" {
		t.Errorf("status = %s, want completed", store.posts[post.ID].Status)
	}
	if len(notifier.msgs) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.msgs))
	}
	if n := d.RunOnce(context.Background()); n != 0 {
		t.Errorf("second pass handled %d posts", n)
	}
}

func TestRunOnce_SecondPassIsNoop(t *testing.T) {
	store := newFakeScheduleStore(scheduled(models.PlatformVelog, dispatchNow.Add(-time.Minute)))
	d := newTestDispatcher(store, &recordingNotifier{})

	d.RunOnce(context.Background())
	if n := d.RunOnce(context.Background()); n != 0 {
		t.Errorf("second pass handled %d posts", n)
	}
}

type countingStore struct {
	*fakeScheduleStore
	mu    sync.Mutex
	lists int
}

func (s *countingStore) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.fakeScheduleStore.ListDueScheduled(ctx, now, limit)
}

func TestStartStop(t *testing.T) {
	store := &countingStore{fakeScheduleStore: newFakeScheduleStore()}
	d := newTestDispatcher(store, &recordingNotifier{})
	d.Start()
	d.Start()
	d.Stop()
	d.Stop()

	// Each loop runs one pass on startup; the interval is a minute.
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.lists != 1 {
		t.Errorf("startup passes = %d, want 1 loop", store.lists)
	}
}
