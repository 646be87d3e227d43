package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter implements an atomic sliding-window counter over Redis sorted
// sets. Issuance limits must hold across concurrent requests and across
// service instances, so the window math runs server-side in one pipeline
// rather than as a read-count-then-compare in the application.
type Limiter struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Limiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Limiter{client: client}, nil
}

func (l *Limiter) Close() error {
	if err := l.client.Close(); err != nil {
		return fmt.Errorf("redis.Limiter.Close: %w", err)
	}
	return nil
}

// Allow records one event under key and reports whether the window still has
// room. count is the number of events in the window including this one, so
// callers can surface remaining quota. member identifies the recorded event;
// a caller whose request fails for another reason can hand it to Forget so
// the failed request does not consume quota. member is empty when the window
// denied (the event is already removed). Errors are returned as-is: the
// caller decides the failure mode, and for issuance that is "fail the
// request", never "allow unbounded".
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (count int, ok bool, member string, err error) {
	now := time.Now()
	cutoff := now.Add(-window)
	event := strconv.FormatInt(now.UnixNano(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: event})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return 0, false, "", fmt.Errorf("redis.Limiter.Allow: %w", err)
	}

	n := int(card.Val())
	if n > limit {
		// Over quota: remove the event we just recorded so rejected requests
		// do not extend the lockout.
		if remErr := l.client.ZRem(ctx, key, event).Err(); remErr != nil {
			return n, false, "", fmt.Errorf("redis.Limiter.Allow: unwind: %w", remErr)
		}
		return n - 1, false, "", nil
	}

	return n, true, event, nil
}

// Forget removes a previously admitted event from its window.
func (l *Limiter) Forget(ctx context.Context, key, member string) error {
	if member == "" {
		return nil
	}
	if err := l.client.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis.Limiter.Forget: %w", err)
	}
	return nil
}

// TenantIssueKey is the window key for per-tenant setup-link issuance.
func TenantIssueKey(tenantID uuid.UUID) string {
	return "links:tenant:" + tenantID.String()
}

// AdminIssueKey is the window key for per-admin setup-link issuance.
func AdminIssueKey(adminID uuid.UUID) string {
	return "links:admin:" + adminID.String()
}
