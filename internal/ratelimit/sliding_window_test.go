package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Runs against a real Redis when REDIS_TEST_URL is set.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestSlidingWindow(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()
	key := "test:ratelimit:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	base := time.Now()
	l := NewSlidingWindow(rdb, 3, 10*time.Minute)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, key)
		if err != nil || !ok {
			t.Fatalf("hit %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, key); ok {
		t.Fatal("fourth hit admitted")
	}

	l.now = func() time.Time { return base.Add(10*time.Minute + time.Millisecond) }
	if ok, err := l.Allow(ctx, key); err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
}
