package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/roach88/treeorder/internal/ordering"
)

// ErrLockLost is logged when a held key turns out to be owned by someone
// else, usually because renewal failed for longer than the TTL.
var ErrLockLost = errors.New("group lock expired before release")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the key's TTL only if it still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisOptions configures the Redis locker.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379")
	URL string

	// Prefix is prepended to every group key (default "treeorder:lock")
	Prefix string

	// TTL bounds how long a crashed holder can block a group. A live holder
	// renews it every TTL/3 until unlock, so moves may run longer than TTL.
	TTL time.Duration

	// RetryInterval is the wait between acquisition attempts
	RetryInterval time.Duration

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration
}

func (o *RedisOptions) defaults() {
	if o.URL == "" {
		o.URL = "redis://localhost:6379"
	}
	if o.Prefix == "" {
		o.Prefix = "treeorder:lock"
	}
	if o.TTL == 0 {
		o.TTL = 10 * time.Second
	}
	if o.RetryInterval == 0 {
		o.RetryInterval = 20 * time.Millisecond
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 5 * time.Second
	}
}

// Redis is a GroupLocker shared by every process using the same server.
// Each lock is a key set with NX and a TTL holding a random token; release
// deletes the key only while it still holds that token.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
}

// Ensure Redis implements ordering.GroupLocker at compile time.
var _ ordering.GroupLocker = (*Redis)(nil)

// NewRedis connects to Redis and returns a locker.
func NewRedis(opts RedisOptions) (*Redis, error) {
	opts.defaults()

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, opts: opts}, nil
}

// Lock polls until the group key is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, group string) (func(), error) {
	key := r.key(group)
	token := uuid.NewString()

	ticker := time.NewTicker(r.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go r.keepAlive(key, token, stop, done)
			return sync.OnceFunc(func() {
				close(stop)
				<-done
				r.release(key, token)
			}), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(group string) string {
	return r.opts.Prefix + ":" + group
}

// keepAlive extends the key's TTL every TTL/3 until stop is closed or the
// key no longer holds token.
func (r *Redis) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.opts.TTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.ConnectTimeout)
		n, err := extendScript.Run(ctx, r.client, []string{key}, token, r.opts.TTL.Milliseconds()).Int()
		cancel()
		if err != nil {
			slog.Warn("failed to extend group lock", "key", key, "error", err)
			continue
		}
		if n == 0 {
			slog.Error("group lock lost while held", "key", key, "error", ErrLockLost)
			return
		}
	}
}

// release runs with its own timeout so a cancelled move still frees the key.
func (r *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.ConnectTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int()
	if err != nil {
		slog.Error("failed to release group lock", "key", key, "error", err)
		return
	}
	if n == 0 {
		slog.Warn("group lock not released", "key", key, "error", ErrLockLost)
	}
}
