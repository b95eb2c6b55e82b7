package lichess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	calls int
	raw   []byte
	err   error
}

func (s *countingSource) GetGame(ctx context.Context, id string) ([]byte, error) {
	s.calls++
	return s.raw, s.err
}

// sequenceSource returns the next payload on every call and repeats the last one.
type sequenceSource struct {
	calls    int
	payloads []string
}

func (s *sequenceSource) GetGame(ctx context.Context, id string) ([]byte, error) {
	p := s.payloads[min(s.calls, len(s.payloads)-1)]
	s.calls++
	return []byte(p), nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestCachedSourceServesFromCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &countingSource{raw: []byte(`{"id":"abc","status":"mate"}`)}
	cache := NewCachedSource(src, rdb, time.Hour, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		raw, err := cache.GetGame(ctx, "abc")
		if err != nil {
			t.Fatalf("get game: %v", err)
		}
		if string(raw) != `{"id":"abc","status":"mate"}` {
			t.Fatalf("raw = %s", raw)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source called %d times, want 1", src.calls)
	}
	if ttl := mr.TTL(gameKeyPrefix + "abc"); ttl != time.Hour {
		t.Errorf("ttl = %s, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := cache.GetGame(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("expired entry not refetched, calls = %d", src.calls)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &countingSource{err: ErrGameNotFound}
	cache := NewCachedSource(src, rdb, time.Hour, nil)

	if _, err := cache.GetGame(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("err = %v", err)
	}
	if mr.Exists(gameKeyPrefix + "nope") {
		t.Error("error result was cached")
	}
}

func TestCachedSourceRedisDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	src := &countingSource{raw: []byte(`{}`)}
	cache := NewCachedSource(src, rdb, time.Hour, nil)
	mr.Close()

	raw, err := cache.GetGame(context.Background(), "abc")
	if err != nil {
		t.Fatalf("redis failure must not fail the call: %v", err)
	}
	if string(raw) != `{}` || src.calls != 1 {
		t.Errorf("raw = %s, calls = %d", raw, src.calls)
	}
}

func TestCachedSourceSkipsUnfinishedGames(t *testing.T) {
	mr, rdb := newTestRedis(t)
	const (
		started  = `{"id":"live","status":"started"}`
		finished = `{"id":"live","status":"mate","winner":"white"}`
	)
	src := &sequenceSource{payloads: []string{started, finished}}
	cache := NewCachedSource(src, rdb, time.Hour, nil)
	ctx := context.Background()

	raw, err := cache.GetGame(ctx, "live")
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if string(raw) != started {
		t.Fatalf("raw = %s", raw)
	}
	if mr.Exists(gameKeyPrefix + "live") {
		t.Fatal("game in progress was cached")
	}

	for i := 0; i < 2; i++ {
		raw, err = cache.GetGame(ctx, "live")
		if err != nil {
			t.Fatalf("get game: %v", err)
		}
		if string(raw) != finished {
			t.Fatalf("call %d: stale export %s", i, raw)
		}
	}
	if src.calls != 2 {
		t.Errorf("source called %d times, want 2", src.calls)
	}
	if !mr.Exists(gameKeyPrefix + "live") {
		t.Error("finished game was not cached")
	}
}

func TestFinishedStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`{"status":"mate"}`, true},
		{`{"status":"resign"}`, true},
		{`{"status":"draw"}`, true},
		{`{"status":"created"}`, false},
		{`{"status":"started"}`, false},
		{`{"id":"x"}`, false},
		{`not json`, false},
	}
	for _, c := range cases {
		if _, got := finishedStatus([]byte(c.raw)); got != c.want {
			t.Errorf("finishedStatus(%s) = %v, want %v", c.raw, got, c.want)
		}
	}
}
