package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"blogtwin-backend/internal/models"
)

// ProgressChannel is the pub/sub channel the websocket hub forwards for a user.
func ProgressChannel(userID uuid.UUID) string {
	return fmt.Sprintf("generation_progress:%s", userID.String())
}

// Notifier pushes websocket envelopes to a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

// RedisNotifier publishes on the user's progress channel. When the publish
// fails the message goes to fallback instead, if one is set.
type RedisNotifier struct {
	redis    *redis.Client
	fallback Notifier
}

func NewRedisNotifier(client *redis.Client, fallback Notifier) *RedisNotifier {
	return &RedisNotifier{redis: client, fallback: fallback}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("notifier: marshal %s: %v", msg.Type, err)
		return
	}
	err = n.redis.Publish(ctx, ProgressChannel(userID), string(data)).Err()
	if err == nil {
		return
	}
	log.Printf("notifier: publish %s for user %s: %v", msg.Type, userID, err)
	if n.fallback != nil {
		n.fallback.Notify(ctx, userID, msg)
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, uuid.UUID, models.WSMessage) {}

func progressMessage(requestID uuid.UUID, stage string, pct int, message, text string) models.WSMessage {
	return models.WSMessage{
		Type: "generation_progress",
		Payload: models.ProgressEvent{
			RequestID: requestID,
			Progress: models.GenerationProgress{
				Stage:       stage,
				Percentage:  pct,
				Message:     message,
				CurrentText: text,
			},
		},
	}
}
