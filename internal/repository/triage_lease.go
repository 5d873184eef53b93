package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TriageLease hands out short-lived exclusive claims on open tickets so two
// admins triaging concurrently receive distinct tickets.
type TriageLease interface {
	Acquire(ctx context.Context, ticketID, adminID int64, ttl time.Duration) (bool, error)
	Release(ctx context.Context, ticketID int64) error
}

type redisTriageLease struct {
	client *redis.Client
}

// NewTriageLease builds a redis-backed lease store.
func NewTriageLease(client *redis.Client) TriageLease {
	return &redisTriageLease{client: client}
}

func triageKey(ticketID int64) string {
	return fmt.Sprintf("triage:ticket:%d", ticketID)
}

func (l *redisTriageLease) Acquire(ctx context.Context, ticketID, adminID int64, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, triageKey(ticketID), adminID, ttl).Result()
}

func (l *redisTriageLease) Release(ctx context.Context, ticketID int64) error {
	return l.client.Del(ctx, triageKey(ticketID)).Err()
}
