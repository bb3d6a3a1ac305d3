package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SyncLock guarantees at most one sync run in flight.
type SyncLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type localSyncLock struct {
	mu sync.Mutex
}

// NewLocalSyncLock guards sync runs within this process.
func NewLocalSyncLock() SyncLock {
	return &localSyncLock{}
}

func (l *localSyncLock) TryLock(_ context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *localSyncLock) Unlock(_ context.Context) error {
	l.mu.Unlock()
	return nil
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type redisSyncLock struct {
	local       sync.Mutex
	redisClient *redis.Client
	key         string
	ttl         time.Duration
	token       string
}

// NewRedisSyncLock guards sync runs across every process sharing the Redis instance.
// The key expires after ttl so a crashed holder cannot block syncs forever.
func NewRedisSyncLock(redisClient *redis.Client, key string, ttl time.Duration) SyncLock {
	return &redisSyncLock{
		redisClient: redisClient,
		key:         key,
		ttl:         ttl,
	}
}

func (l *redisSyncLock) TryLock(ctx context.Context) (bool, error) {
	if !l.local.TryLock() {
		return false, nil
	}

	token := uuid.NewString()
	acquired, err := l.redisClient.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		l.local.Unlock()
		return false, fmt.Errorf("failed to acquire sync lock %s: %w", l.key, err)
	}
	if !acquired {
		l.local.Unlock()
		return false, nil
	}

	l.token = token
	return true, nil
}

func (l *redisSyncLock) Unlock(ctx context.Context) error {
	defer l.local.Unlock()

	token := l.token
	l.token = ""
	if err := releaseScript.Run(ctx, l.redisClient, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release sync lock %s: %w", l.key, err)
	}
	return nil
}
