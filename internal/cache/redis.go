package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/logger"
)

// Cache keys
const (
	BalanceKeyFmt     = "ledger:balance:%d"
	ClosingLockKeyFmt = "closing:%d:%s"
)

const (
	balanceTTL     = 5 * time.Minute
	closingLockTTL = 2 * time.Minute
)

var (
	client *redis.Client
	locker *redislock.Client
)

// Init connects to Redis. On failure the client stays nil and every helper
// degrades to a no-op.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	locker = redislock.New(client)
	return nil
}

// SetClient installs an existing client, used by tests
func SetClient(c *redis.Client) {
	client = c
	if c == nil {
		locker = nil
		return
	}
	locker = redislock.New(c)
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

func Close() {
	if client != nil {
		client.Close()
	}
}

// GetCachedBalance returns a cached customer balance if available
func GetCachedBalance(ctx context.Context, customerID int) (int64, bool) {
	if client == nil {
		return 0, false
	}
	balance, err := client.Get(ctx, fmt.Sprintf(BalanceKeyFmt, customerID)).Int64()
	if err != nil {
		return 0, false
	}
	return balance, true
}

// CacheBalance stores a customer balance for a short time
func CacheBalance(ctx context.Context, customerID int, balance int64) {
	if client == nil {
		return
	}
	client.Set(ctx, fmt.Sprintf(BalanceKeyFmt, customerID), balance, balanceTTL)
}

// InvalidateBalance drops the cached balance of a customer.
// Called after every committed ledger write.
func InvalidateBalance(ctx context.Context, customerID int) {
	InvalidateKeys(ctx, fmt.Sprintf(BalanceKeyFmt, customerID))
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// LockClosing takes the distributed lock of a warehouse/month closing run.
// Without Redis it returns a no-op release: a single instance is already
// serialized by its database locks.
func LockClosing(ctx context.Context, warehouseID int, yearMonth string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf(ClosingLockKeyFmt, warehouseID, yearMonth)
	lock, err := locker.Obtain(ctx, key, closingLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperr.Conflict("a closing run for this warehouse and month is already in progress").
			WithDetail("lock", key)
	}
	if err != nil {
		logger.LogError("cache", "LockClosing", "obtain closing lock", key, err)
		return nil, fmt.Errorf("failed to obtain closing lock: %w", err)
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError("cache", "LockClosing", "release closing lock", key, err)
		}
	}, nil
}
