package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check
var _ ClaimLease = (*redisClaimLease)(nil)

// redisClaimLease backs moderation claims with a SetNX lease so an abandoned
// claim expires on its own. The durable ownership record stays in Postgres;
// the lease only bounds how long a silent moderator can hold an entry.
type redisClaimLease struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClaimLease creates a Redis-backed ClaimLease.
func NewRedisClaimLease(client *redis.Client, logger *zap.Logger) ClaimLease {
	return &redisClaimLease{
		client: client,
		logger: logger.Named("RedisClaimLease"),
	}
}

func claimKey(entryID uuid.UUID) string {
	return fmt.Sprintf("moderation_claim:%s", entryID)
}

func (r *redisClaimLease) Acquire(ctx context.Context, entryID uuid.UUID, moderatorID string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, claimKey(entryID), moderatorID, ttl).Result()
	if err != nil {
		r.logger.Error("Failed to acquire claim lease", zap.String("entryID", entryID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to acquire claim lease: %w", err)
	}
	return ok, nil
}

// Release drops the lease only when the caller still owns it, so a lease that
// expired and was re-acquired by someone else is never clobbered.
func (r *redisClaimLease) Release(ctx context.Context, entryID uuid.UUID, moderatorID string) error {
	const script = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
	if err := r.client.Eval(ctx, script, []string{claimKey(entryID)}, moderatorID).Err(); err != nil {
		r.logger.Error("Failed to release claim lease", zap.String("entryID", entryID.String()), zap.Error(err))
		return fmt.Errorf("failed to release claim lease: %w", err)
	}
	return nil
}
