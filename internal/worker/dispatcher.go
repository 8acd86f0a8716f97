package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/services"
)

const (
	defaultPollInterval = time.Minute
	defaultBatchSize    = 50
)

type ScheduleStore interface {
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledPost, error)
	ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateScheduledStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateHistory(ctx context.Context, h *models.PublishHistory) error
}

type CapabilityLookup interface {
	Capability(platform models.PublishPlatform) (services.PlatformCapability, bool)
}

// Dispatcher hands due scheduled posts back to their owners. No platform is
// published to directly; the user is notified with what the platform needs.
type Dispatcher struct {
	store        ScheduleStore
	capabilities CapabilityLookup
	notifier     services.Notifier
	interval     time.Duration
	batchSize    int
	now          func() time.Time

	startOnce sync.Once
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(store ScheduleStore, capabilities CapabilityLookup, notifier services.Notifier, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Dispatcher{
		store:        store,
		capabilities: capabilities,
		notifier:     notifier,
		interval:     interval,
		batchSize:    defaultBatchSize,
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the polling loop. Later calls do nothing.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.loop()
		log.Printf("Scheduled publish dispatcher started (every %s)", d.interval)
	})
}

// Stop ends the loop and waits for the current pass to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	// Run on startup as well as by interval.
	d.RunOnce(context.Background())

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.RunOnce(context.Background())
		}
	}
}

// RunOnce dispatches every post due now and returns how many it handled.
func (d *Dispatcher) RunOnce(ctx context.Context) int {
	due, err := d.store.ListDueScheduled(ctx, d.now().UTC(), d.batchSize)
	if err != nil {
		log.Printf("dispatcher: failed to list due posts: %v", err)
		return 0
	}

	handled := 0
	for _, post := range due {
		claimed, err := d.store.ClaimScheduled(ctx, post.ID)
		if err != nil {
			log.Printf("dispatcher: failed to claim scheduled post %s: %v", post.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		if err := d.dispatch(ctx, post); err != nil {
			log.Printf("dispatcher: scheduled post %s failed, returning it to pending: %v", post.ID, err)
			if err := d.store.UpdateScheduledStatus(ctx, post.ID, "pending"); err != nil {
				log.Printf("dispatcher: failed to reset scheduled post %s: %v", post.ID, err)
			}
			continue
		}
		handled++
	}
	return handled
}

func (d *Dispatcher) dispatch(ctx context.Context, post *models.ScheduledPost) error {
	capability, _ := d.capabilities.Capability(post.Platform)

	status := models.PublishStatusPublishing
	if !capability.DirectPublish {
		status = models.PublishStatusManual
	}

	h := &models.PublishHistory{
		UserID:   post.UserID,
		PostID:   post.PostID,
		Platform: post.Platform,
		Title:    post.Title,
		Status:   status,
	}
	// Completing first keeps a retried pass from writing a second history row.
	if err := d.store.UpdateScheduledStatus(ctx, post.ID, "completed"); err != nil {
		return err
	}
	if err := d.store.CreateHistory(ctx, h); err != nil {
		log.Printf("dispatcher: failed to record history for scheduled post %s: %v", post.ID, err)
	}

	post.Status = "completed"
	d.notifier.Notify(ctx, post.UserID, models.WSMessage{
		Type: "scheduled_publish_due",
		Payload: models.ScheduledPublishEvent{
			Post:           *post,
			ManualRequired: !capability.DirectPublish,
			EditorURL:      capability.EditorURL,
		},
	})
	return nil
}
