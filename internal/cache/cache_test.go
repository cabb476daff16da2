package cache

import (
	"context"
	"reflect"
	"testing"
	"time"

	"dota-tracker/internal/config"
	"dota-tracker/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"go.uber.org/fx/fxtest"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func sampleDetail() *domain.MatchDetail {
	return &domain.MatchDetail{
		MatchID:      7000000001,
		StartTime:    1700000000,
		FirstTeamWon: true,
		Participants: []domain.Participant{
			{AccountID: 86745912, PlayerSlot: 0, HeroID: 1, Lane: 1, Kills: 10, Deaths: 2, Assists: 7, GPM: 650, XPM: 700},
			{AccountID: 1234, PlayerSlot: 128, HeroID: 2, Lane: 3, Kills: 1, Deaths: 8, Assists: 4, GPM: 300, XPM: 350},
		},
	}
}

func TestRedisMatchCache_SetGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisMatchCache(client, time.Hour, zerolog.Nop())
	ctx := context.Background()

	want := sampleDetail()
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, want.MatchID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestRedisMatchCache_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisMatchCache(client, time.Hour, zerolog.Nop())

	got, err := c.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestRedisMatchCache_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisMatchCache(client, time.Minute, zerolog.Nop())
	ctx := context.Background()

	detail := sampleDetail()
	if err := c.Set(ctx, detail); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ttl := mr.TTL(makeKey(detail.MatchID)); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, detail.MatchID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() after expiry = %+v, want nil", got)
	}
}

func TestRedisMatchCache_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisMatchCache(client, time.Hour, zerolog.Nop())

	if err := mr.Set(makeKey(5), "{not json"); err != nil {
		t.Fatalf("miniredis Set() error = %v", err)
	}

	got, err := c.Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
	if mr.Exists(makeKey(5)) {
		t.Error("corrupt entry should be deleted")
	}
}

func TestNew(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("disabled", func(t *testing.T) {
		if _, ok := New(&config.Config{}, logger).(NoopMatchCache); !ok {
			t.Error("New() without address should return NoopMatchCache")
		}
	})

	t.Run("connected", func(t *testing.T) {
		_, mr := setupTestRedis(t)
		cfg := &config.Config{RedisAddr: mr.Addr(), MatchCacheTTL: time.Hour}
		if _, ok := New(cfg, logger).(*RedisMatchCache); !ok {
			t.Error("New() with reachable redis should return *RedisMatchCache")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		if err := mr.Start(); err != nil {
			t.Fatalf("failed to start miniredis: %v", err)
		}
		addr := mr.Addr()
		mr.Close()

		if _, ok := New(&config.Config{RedisAddr: addr}, logger).(NoopMatchCache); !ok {
			t.Error("New() with unreachable redis should fall back to NoopMatchCache")
		}
	})
}

func TestRegister_ClosesRedisOnStop(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	lc := fxtest.NewLifecycle(t)
	Register(lc, NewRedisMatchCache(client, time.Hour, zerolog.Nop()), zerolog.Nop())
	lc.RequireStart()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Ping() before stop error = %v", err)
	}

	lc.RequireStop()

	if err := client.Ping(ctx).Err(); err == nil {
		t.Error("Ping() after stop succeeded, want closed client")
	}
}

func TestRegister_NoopCache(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	Register(lc, NoopMatchCache{}, zerolog.Nop())
	lc.RequireStart().RequireStop()
}
