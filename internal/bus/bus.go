// Package bus implements the Message Bus abstraction (§4.1): ordered
// per-channel pub/sub plus a string KV surface with TTL, backing the
// Zone Registry (§4.2) and cross-process message routing (§2, §6).
package bus

import (
	"context"
	"time"
)

// Handler processes one envelope received on an exact-match subscription.
// Bus handler invocations on a single channel are serialized (§4.1).
type Handler func(Envelope)

// PatternHandler processes one envelope received on a pattern
// subscription; channel is the concrete channel the message arrived on.
type PatternHandler func(channel string, env Envelope)

// Unsubscribe cancels a subscription. Calling it more than once is safe.
type Unsubscribe func()

// Bus is the pub/sub + KV surface every gateway and zone process uses
// (§4.1). Implementations MUST NOT let Publish panic or error when the
// underlying transport is disconnected — the call is dropped with a
// logged warning instead (§4.1, §7 "Transient infra").
type Bus interface {
	Publish(ctx context.Context, channel string, env Envelope)

	Subscribe(ctx context.Context, channel string, h Handler) (Unsubscribe, error)
	PSubscribe(ctx context.Context, pattern string, h PatternHandler) (Unsubscribe, error)

	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetEx(ctx context.Context, key string, ttl time.Duration, value string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Connected reports whether the underlying transport is currently up.
	Connected() bool

	Close() error
}
