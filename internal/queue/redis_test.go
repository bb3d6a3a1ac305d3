package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"catalogmirror/scraper/internal/domain/event"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Redis not reachable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPublishAppendsToStream(t *testing.T) {
	client := testRedisClient(t)
	ctx := context.Background()
	stream := "catalog:test:stream:" + t.Name()
	t.Cleanup(func() { client.Del(ctx, stream) })

	publisher := NewRedisPublisher(client, stream)
	synced := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := publisher.Publish(ctx, &event.SyncCompletedEvent{RunID: "run-1", SyncedAt: synced, TotalProducts: 2, TotalCategories: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	messages, err := client.XRange(ctx, stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "SyncCompleted", messages[0].Values[event.FieldType])

	decoded, err := event.Decode[*event.SyncCompletedEvent](messages[0].Values)
	require.NoError(t, err)
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 2, decoded.TotalProducts)
}
