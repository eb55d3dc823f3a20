package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/pkg/logger"
)

const lockTTL = 10 * time.Second

// RedisRepository stores each user's Record document under one key. Writes
// take a short per-user lock so two sessions of the same user do not
// interleave a save with a reset.
type RedisRepository struct {
	client redis.UniversalClient
	locker *redislock.Client
	prefix string
	log    logger.Logger
}

func NewRedis(client redis.UniversalClient, prefix string, log logger.Logger) *RedisRepository {
	return &RedisRepository{
		client: client,
		locker: redislock.New(client),
		prefix: prefix,
		log:    log,
	}
}

func (r *RedisRepository) Load(ctx context.Context, cred syncdomain.Credential) (*ledger.Record, error) {
	data, err := r.client.Get(ctx, r.key(cred.UserID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record, err := ledger.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return &record, nil
}

func (r *RedisRepository) Save(ctx context.Context, cred syncdomain.Credential, record ledger.Record) error {
	payload, err := ledger.Encode(record)
	if err != nil {
		return err
	}

	release := r.lock(ctx, cred.UserID)
	defer release()

	return r.client.Set(ctx, r.key(cred.UserID), payload, 0).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, cred syncdomain.Credential) error {
	release := r.lock(ctx, cred.UserID)
	defer release()

	return r.client.Del(ctx, r.key(cred.UserID)).Err()
}

func (r *RedisRepository) key(userID string) string {
	return r.prefix + "users:" + userID
}

// lock is best-effort: when it cannot be obtained the write goes ahead.
func (r *RedisRepository) lock(ctx context.Context, userID string) func() {
	lock, err := r.locker.Obtain(ctx, r.prefix+"lock:users:"+userID, lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 10),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			r.log.Warn("redis.records: lock busy, writing without lock", "user_id", userID)
		} else {
			r.log.BusinessError("redis.records: obtain lock failed", err, "user_id", userID)
		}
		return func() {}
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.BusinessError("redis.records: release lock failed", err, "user_id", userID)
		}
	}
}
