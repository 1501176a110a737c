// Package cache keeps resolved generation statuses in redis so status polls
// do not hit the database once an entity has settled.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	statusTTL     = 24 * time.Hour
	statusTimeout = 300 * time.Millisecond
)

type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatusCache(client *redis.Client) *StatusCache {
	return &StatusCache{client: client, ttl: statusTTL}
}

func statusKey(kind usecase.GenerationKind, id uuid.UUID) string {
	return fmt.Sprintf("%s:status:%s", kind, id)
}

func (c *StatusCache) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= statusTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, statusTimeout)
}

func (c *StatusCache) GetStatus(ctx context.Context, kind usecase.GenerationKind, id uuid.UUID) (usecase.Status, bool, error) {
	if c == nil || c.client == nil {
		return usecase.Status{}, false, nil
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	raw, err := c.client.Get(ctx, statusKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.Status{}, false, nil
	}
	if err != nil {
		return usecase.Status{}, false, err
	}

	var st usecase.Status
	if err := json.Unmarshal(raw, &st); err != nil {
		// a corrupt entry behaves like a miss and is overwritten on next resolve
		return usecase.Status{}, false, nil
	}
	return st, true, nil
}

// SetStatus refuses pending statuses.
func (c *StatusCache) SetStatus(ctx context.Context, st usecase.Status) error {
	if c == nil || c.client == nil {
		return nil
	}
	if !st.Resolved() {
		return fmt.Errorf("cache: refusing to store %s status for %s", st.State, st.ID)
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	return c.client.Set(ctx, statusKey(st.Kind, st.ID), b, c.ttl).Err()
}

func (c *StatusCache) DeleteStatus(ctx context.Context, kind usecase.GenerationKind, id uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	ctx, cancel := c.context(ctx)
	defer cancel()

	return c.client.Del(ctx, statusKey(kind, id)).Err()
}
