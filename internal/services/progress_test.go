package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"blogtwin-backend/internal/models"
)

func TestRedisNotifier_FallsBackWhenPublishFails(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	fallback := &recordingNotifier{}
	n := NewRedisNotifier(client, fallback)

	requestID := uuid.New()
	n.Notify(context.Background(), uuid.New(), progressMessage(requestID, models.StageComplete, 100, "done", ""))

	stages := fallback.stages()
	if len(stages) != 1 || stages[0] != models.StageComplete {
		t.Fatalf("fallback stages = %v, want one %q", stages, models.StageComplete)
	}
}

func TestProgressChannel(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	if got := ProgressChannel(id); got != "generation_progress:00000000-0000-0000-0000-000000000001" {
		t.Errorf("channel = %q", got)
	}
}
