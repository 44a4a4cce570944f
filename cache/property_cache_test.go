package cache

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKeyIgnoresParameterOrder(t *testing.T) {
	a := url.Values{"minPrice": {"100"}, "amenities": {"pool", "gym"}}
	b := url.Values{"amenities": {"gym", "pool"}, "minPrice": {"100"}}

	if Key("u1", a) != Key("u1", b) {
		t.Error("keys differ for the same query in another order")
	}
	if Key("u1", a) == Key("u2", a) {
		t.Error("keys collide across scopes")
	}
	if !strings.HasPrefix(Key("", nil), keyPrefix) {
		t.Errorf("key %q lacks prefix", Key("", nil))
	}
	if a["amenities"][0] != "pool" {
		t.Error("Key reordered the caller's values")
	}
}

func TestFetchWithoutRedisAlwaysLoads(t *testing.T) {
	var c *PropertyCache
	calls := 0
	load := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`[]`), nil
	}

	for i := 0; i < 2; i++ {
		data, hit, err := c.Fetch(context.Background(), "k", load)
		if err != nil || hit || string(data) != "[]" {
			t.Fatalf("Fetch = %q, %v, %v", data, hit, err)
		}
	}
	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}

	c.Invalidate(context.Background())
	c.InvalidateAsync()
}

func TestFetchFallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := New(client, time.Minute)

	data, hit, err := c.Fetch(context.Background(), "property:x", func(context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil || hit || string(data) != "fresh" {
		t.Fatalf("Fetch = %q, %v, %v", data, hit, err)
	}

	wantErr := errors.New("db down")
	if _, _, err := c.Fetch(context.Background(), "property:y", func(context.Context) ([]byte, error) {
		return nil, wantErr
	}); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want loader error", err)
	}
}

func TestFetchLoadSurvivesCallerCancel(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := New(client, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, _, err := c.Fetch(ctx, "property:z", func(loadCtx context.Context) ([]byte, error) {
		if err := loadCtx.Err(); err != nil {
			return nil, err
		}
		return []byte("shared"), nil
	})
	if err != nil || string(data) != "shared" {
		t.Fatalf("Fetch = %q, %v", data, err)
	}
}
