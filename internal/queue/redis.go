package queue

import (
	"context"
	"fmt"

	"catalogmirror/scraper/internal/domain/event"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Publisher announces domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) (string, error) // Returns message ID
}

type RedisPublisher struct {
	redisClient *redis.Client
	stream      string
}

// NewRedisPublisher appends events to a single Redis stream.
func NewRedisPublisher(redisClient *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{
		redisClient: redisClient,
		stream:      stream,
	}
}

func (q *RedisPublisher) Publish(ctx context.Context, e event.Event) (string, error) {
	values, err := event.Fields(e)
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add event to Redis stream %s: %w", q.stream, err)
	}

	log.Debugf("Added event %s to stream %s with message ID: %s", e.EventType(), q.stream, messageID)
	return messageID, nil
}
