package bus

import (
	"context"
	"path"
	"sync"
	"time"
)

// FakeBus is an in-process Bus used by unit tests across the zone
// manager, world manager, gateway, and registry packages (teacher idiom:
// inject a fake collaborator rather than mock a library, mirroring
// la2go's broadcastFunc-style test doubles). It has no disconnected
// state — Publish always delivers, synchronously, to registered
// subscribers.
type FakeBus struct {
	mu sync.Mutex

	exact    map[string][]Handler
	patterns map[string][]PatternHandler
	kv       map[string]fakeEntry

	published []PublishedMessage
}

type fakeEntry struct {
	value  string
	expiry time.Time // zero = no TTL
}

// PublishedMessage records one Publish call, for test assertions.
type PublishedMessage struct {
	Channel string
	Env     Envelope
}

// NewFakeBus returns an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		exact:    make(map[string][]Handler),
		patterns: make(map[string][]PatternHandler),
		kv:       make(map[string]fakeEntry),
	}
}

func (b *FakeBus) Publish(_ context.Context, channel string, env Envelope) {
	b.mu.Lock()
	b.published = append(b.published, PublishedMessage{Channel: channel, Env: env})
	exact := append([]Handler(nil), b.exact[channel]...)
	var matched []PatternHandler
	for pat, handlers := range b.patterns {
		if ok, _ := path.Match(pat, channel); ok {
			matched = append(matched, handlers...)
		}
	}
	b.mu.Unlock()

	for _, h := range exact {
		if h != nil {
			h(env)
		}
	}
	for _, h := range matched {
		if h != nil {
			h(channel, env)
		}
	}
}

func (b *FakeBus) Subscribe(_ context.Context, channel string, h Handler) (Unsubscribe, error) {
	b.mu.Lock()
	b.exact[channel] = append(b.exact[channel], h)
	idx := len(b.exact[channel]) - 1
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.exact[channel]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}, nil
}

func (b *FakeBus) PSubscribe(_ context.Context, pattern string, h PatternHandler) (Unsubscribe, error) {
	b.mu.Lock()
	b.patterns[pattern] = append(b.patterns[pattern], h)
	idx := len(b.patterns[pattern]) - 1
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.patterns[pattern]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}, nil
}

func (b *FakeBus) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.kv[key]
	if !ok || b.expired(e) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (b *FakeBus) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kv[key] = fakeEntry{value: value}
	return nil
}

func (b *FakeBus) SetEx(_ context.Context, key string, ttl time.Duration, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kv[key] = fakeEntry{value: value, expiry: time.Now().Add(ttl)}
	return nil
}

func (b *FakeBus) Del(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.kv, key)
	return nil
}

func (b *FakeBus) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.kv[key]
	return ok && !b.expired(e), nil
}

func (b *FakeBus) Keys(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for k, e := range b.kv {
		if b.expired(e) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *FakeBus) expired(e fakeEntry) bool {
	return !e.expiry.IsZero() && time.Now().After(e.expiry)
}

func (b *FakeBus) Connected() bool { return true }

func (b *FakeBus) Close() error { return nil }

// Published returns a snapshot of every message published so far, for
// test assertions.
func (b *FakeBus) Published() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PublishedMessage(nil), b.published...)
}
