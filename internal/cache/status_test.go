package cache

import (
	"context"
	"testing"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestStatusKey(t *testing.T) {
	id := uuid.MustParse("6f1c3f5e-8a57-4b8e-9c3c-0d5f8f6a2b11")

	tests := []struct {
		kind usecase.GenerationKind
		want string
	}{
		{usecase.KindAvatar, "avatar:status:6f1c3f5e-8a57-4b8e-9c3c-0d5f8f6a2b11"},
		{usecase.KindAnimation, "animation:status:6f1c3f5e-8a57-4b8e-9c3c-0d5f8f6a2b11"},
	}
	for _, tt := range tests {
		if got := statusKey(tt.kind, id); got != tt.want {
			t.Errorf("statusKey(%s) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSetStatusRefusesPending(t *testing.T) {
	// never dialled: the pending check runs before any network call
	c := NewStatusCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	defer c.client.Close()

	err := c.SetStatus(context.Background(), usecase.Status{
		ID:    uuid.New(),
		Kind:  usecase.KindAvatar,
		State: usecase.StatePending,
	})
	if err == nil {
		t.Fatal("Expected an error for a pending status")
	}
}

func TestNilCacheIsAMiss(t *testing.T) {
	var c *StatusCache
	ctx := context.Background()

	_, ok, err := c.GetStatus(ctx, usecase.KindAvatar, uuid.New())
	if err != nil || ok {
		t.Errorf("Expected a miss without error, got ok=%v err=%v", ok, err)
	}
	if err := c.SetStatus(ctx, usecase.Status{State: usecase.StateComplete}); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if err := c.DeleteStatus(ctx, usecase.KindAvatar, uuid.New()); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestRedisOptionsDefaults(t *testing.T) {
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASSWORD", "secret")

	opt := RedisOptions()
	if opt.Addr != "localhost:6379" {
		t.Errorf("Expected localhost:6379, got %s", opt.Addr)
	}
	if opt.Password != "secret" {
		t.Errorf("Expected password from env, got %q", opt.Password)
	}
}
