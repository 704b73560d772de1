package bus

import (
	"context"
	"testing"
	"time"
)

func TestFakeBusPublishSubscribe(t *testing.T) {
	b := NewFakeBus()
	ctx := context.Background()

	var got []Envelope
	unsub, err := b.Subscribe(ctx, "zone:1:input", func(e Envelope) {
		got = append(got, e)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	env, _ := Marshal("PLAYER_MOVE", map[string]int{"x": 1})
	b.Publish(ctx, "zone:1:input", env)
	if len(got) != 1 || got[0].Type != "PLAYER_MOVE" {
		t.Fatalf("got %+v, want one PLAYER_MOVE envelope", got)
	}

	unsub()
	b.Publish(ctx, "zone:1:input", env)
	if len(got) != 1 {
		t.Fatalf("handler still firing after unsubscribe: %+v", got)
	}
}

func TestFakeBusPSubscribe(t *testing.T) {
	b := NewFakeBus()
	ctx := context.Background()

	var channels []string
	_, err := b.PSubscribe(ctx, "zone:*:input", func(channel string, e Envelope) {
		channels = append(channels, channel)
	})
	if err != nil {
		t.Fatalf("PSubscribe: %v", err)
	}

	env, _ := Marshal("PLAYER_CHAT", nil)
	b.Publish(ctx, "zone:42:input", env)
	b.Publish(ctx, "gateway:output", env)

	if len(channels) != 1 || channels[0] != "zone:42:input" {
		t.Fatalf("channels = %v, want only zone:42:input to match", channels)
	}
}

func TestFakeBusKVTTL(t *testing.T) {
	b := NewFakeBus()
	ctx := context.Background()

	if err := b.SetEx(ctx, "server:heartbeat:s1", 10*time.Millisecond, "now"); err != nil {
		t.Fatalf("SetEx: %v", err)
	}
	ok, err := b.Exists(ctx, "server:heartbeat:s1")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true, nil", ok, err)
	}

	time.Sleep(20 * time.Millisecond)
	ok, err = b.Exists(ctx, "server:heartbeat:s1")
	if err != nil || ok {
		t.Fatalf("Exists after TTL = %v, %v, want false, nil", ok, err)
	}
}

func TestFakeBusKeysScan(t *testing.T) {
	b := NewFakeBus()
	ctx := context.Background()

	_ = b.Set(ctx, "zone:assignment:1", "a")
	_ = b.Set(ctx, "zone:assignment:2", "b")
	_ = b.Set(ctx, "player:location:7", "c")

	keys, err := b.Keys(ctx, "zone:assignment:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys = %v, want 2 entries", keys)
	}
}
