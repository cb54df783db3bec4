package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ytget/youcube/internal/config"
)

// Redis lock settings
const (
	DefaultKeyPrefix    = "youcube:lock:"
	DefaultRetryDelay   = 250 * time.Millisecond
	releaseTimeout      = 5 * time.Second
	refreshDivisor      = 3
	connectPingDeadline = 3 * time.Second
)

// Delete or extend the key only while it still holds our token.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Redis is a Locker shared by every process using the same Redis server.
// Held locks are refreshed in the background until released.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis creates a Redis-backed locker
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = config.DefaultLockTTL
	}
	if ttl < config.MinLockTTL {
		ttl = config.MinLockTTL
	}
	return &Redis{
		client: client,
		prefix: DefaultKeyPrefix,
		ttl:    ttl,
		retry:  DefaultRetryDelay,
	}
}

// Lock polls SET NX until the key is acquired or ctx ends
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(r.retry):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.refresh(ctx, k, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() { r.release(ctx, k, token, stop, done) })
	}, nil
}

func (r *Redis) release(ctx context.Context, k, token string, stop chan struct{}, done <-chan struct{}) {
	close(stop)
	<-done

	rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(rctx, r.client, []string{k}, token).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", k).Msg("Failed to release lock")
	}
}

func (r *Redis) refresh(ctx context.Context, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / refreshDivisor)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			err := refreshScript.Run(rctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Err()
			cancel()
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to refresh lock")
			}
		}
	}
}

// New returns the locker for cfg: Redis when an address is configured and
// reachable, in-memory otherwise. The returned func closes the Redis connection.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Locker, func() error) {
	noop := func() error { return nil }
	if cfg.RedisAddr == "" {
		return NewMemory(), noop
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pctx, cancel := context.WithTimeout(ctx, connectPingDeadline)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis not available, using in-memory locks")
		_ = client.Close()
		return NewMemory(), noop
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("Redis connected, using shared locks")
	return NewRedis(client, cfg.LockTTL), client.Close
}
