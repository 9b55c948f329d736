package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"smartlearn/internal/learning"
	"smartlearn/pkg/logger"
)

const lockKeyPrefix = "smartlearn:progress_lock:"

// unlockScript deletes the lock only when it still holds our token, so an
// expired lock that another holder re-acquired is never released by us.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ProgressLocker serializes quiz attempt submissions per learner with a
// Redis lock. Concurrent attempts by the same learner are rare, so a short
// bounded wait is enough; losing the race after the retries surfaces as
// ErrConcurrentUpdateConflict.
type ProgressLocker struct {
	client   *redis.Client
	ttl      time.Duration
	retries  int
	interval time.Duration
	log      *logger.Logger
}

// NewProgressLocker creates a new ProgressLocker.
func NewProgressLocker(client *redis.Client, log *logger.Logger) *ProgressLocker {
	return &ProgressLocker{
		client:   client,
		ttl:      10 * time.Second,
		retries:  5,
		interval: 200 * time.Millisecond,
		log:      log,
	}
}

// Lock acquires the learner's lock and returns the release function. The
// release is best effort; the TTL reclaims the lock if the holder dies.
func (l *ProgressLocker) Lock(ctx context.Context, learnerID string) (func(), error) {
	key := lockKeyPrefix + learnerID
	token := uuid.NewString()

	for attempt := 0; attempt <= l.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.interval):
			}
		}

		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire progress lock: %w", err)
		}
		if ok {
			return func() { l.unlock(key, token) }, nil
		}
	}

	return nil, fmt.Errorf("%w: learner '%s'", learning.ErrConcurrentUpdateConflict, learnerID)
}

func (l *ProgressLocker) unlock(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		l.log.WithError(err).Warn(fmt.Sprintf("failed to release progress lock '%s'", key))
	}
}
