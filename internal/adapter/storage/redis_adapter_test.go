package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestAllowView_ThrottlesWithinWindow(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "sess::" + uuid.NewString()

	ok, err := adapter.AllowView(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected first view to be allowed")
	}

	ok, err = adapter.AllowView(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected repeat view to be throttled")
	}
}

func TestAllowView_WindowExpires(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "sess::" + uuid.NewString()

	ok, _ := adapter.AllowView(ctx, key, 50*time.Millisecond)
	if !ok {
		t.Fatal("expected first view to be allowed")
	}

	time.Sleep(80 * time.Millisecond)

	ok, err := adapter.AllowView(ctx, key, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected view after expiry to be allowed")
	}
}

func TestAllowView_IndependentKeys(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	a := "sess-a::" + uuid.NewString()
	b := "sess-b::" + uuid.NewString()

	if ok, _ := adapter.AllowView(ctx, a, time.Minute); !ok {
		t.Fatal("expected key a to be allowed")
	}
	if ok, _ := adapter.AllowView(ctx, b, time.Minute); !ok {
		t.Error("expected key b to be independent of key a")
	}
}
