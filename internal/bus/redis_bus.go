package bus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBus is the production Bus implementation, backed by Redis
// PUBLISH/SUBSCRIBE/PSUBSCRIBE channels and GET/SET/SETEX/DEL/EXISTS/KEYS
// for the KV surface (§4.1). Gateway and zone processes each own their
// own RedisBus instance ("each own their own bus client pair", §4.1).
type RedisBus struct {
	client *redis.Client

	connected atomic.Bool

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewRedisBus connects to the Redis URL (e.g. "redis://host:6379/0") and
// returns a ready Bus. Connection loss afterwards is detected lazily on
// the next Publish and flips Connected() to false.
func NewRedisBus(ctx context.Context, url string) (*RedisBus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	b := &RedisBus{client: client}
	if err := client.Ping(ctx).Err(); err != nil {
		b.connected.Store(false)
		return b, err
	}
	b.connected.Store(true)
	return b, nil
}

// Publish fire-and-forgets an envelope on channel. Per §4.1, a disconnected
// bus drops the publish with a warning rather than surfacing an error.
func (b *RedisBus) Publish(ctx context.Context, channel string, env Envelope) {
	data, err := Encode(env)
	if err != nil {
		slog.Error("bus: encode envelope failed", "channel", channel, "error", err)
		return
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		b.connected.Store(false)
		slog.Warn("bus: publish dropped, bus disconnected", "channel", channel, "error", err)
		return
	}
	b.connected.Store(true)
}

// Subscribe registers an exact-match handler. Messages on a single
// channel are delivered to h in publication order, one at a time (§4.1,
// §5 "Ordering guarantees").
func (b *RedisBus) Subscribe(ctx context.Context, channel string, h Handler) (Unsubscribe, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}
	b.registerSub(pubsub)

	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				slog.Warn("bus: dropping undecodable message", "channel", channel, "error", err)
				continue
			}
			h(env)
		}
	}()

	return b.unsubscribeFunc(pubsub), nil
}

// PSubscribe registers a glob-pattern handler (e.g. "zone:*:input").
func (b *RedisBus) PSubscribe(ctx context.Context, pattern string, h PatternHandler) (Unsubscribe, error) {
	pubsub := b.client.PSubscribe(ctx, pattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}
	b.registerSub(pubsub)

	ch := pubsub.Channel()
	go func() {
		for msg := range ch {
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				slog.Warn("bus: dropping undecodable message", "pattern", pattern, "error", err)
				continue
			}
			h(msg.Channel, env)
		}
	}()

	return b.unsubscribeFunc(pubsub), nil
}

func (b *RedisBus) registerSub(ps *redis.PubSub) {
	b.mu.Lock()
	b.subs = append(b.subs, ps)
	b.mu.Unlock()
}

func (b *RedisBus) unsubscribeFunc(ps *redis.PubSub) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
		})
	}
}

func (b *RedisBus) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *RedisBus) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBus) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBus) Del(ctx context.Context, key string) error {
	return b.client.Del(ctx, key).Err()
}

func (b *RedisBus) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBus) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := b.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RedisBus) Connected() bool {
	return b.connected.Load()
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()
	for _, s := range subs {
		_ = s.Close()
	}
	return b.client.Close()
}
