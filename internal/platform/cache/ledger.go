package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// BumpChannel receives "<tenant>:<version>" whenever a tenant ledger changes.
const BumpChannel = "books.ledger.bump"

// Ledger versions the cached read models of each tenant ledger. Readers embed
// the version in their keys so a bump invalidates every derived entry.
type Ledger struct {
	client *redis.Client
}

// NewLedger instantiates the version helper. A nil client disables it.
func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client}
}

func versionKey(tenantID int64) string {
	return "books:ledger:version:" + strconv.FormatInt(tenantID, 10)
}

// Version returns the current ledger version of the tenant, initialising when missing.
func (l *Ledger) Version(ctx context.Context, tenantID int64) (int64, error) {
	if l == nil || l.client == nil {
		return 0, nil
	}
	ver, err := l.client.Get(ctx, versionKey(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := l.client.SetNX(ctx, versionKey(tenantID), 1, 0).Err(); err != nil {
			return 0, err
		}
		return l.client.Get(ctx, versionKey(tenantID)).Int64()
	}
	return ver, err
}

// Key composes a cache key bound to the current ledger version.
func (l *Ledger) Key(ctx context.Context, tenantID int64, name string) (string, error) {
	ver, err := l.Version(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("books:%d:%s:v%d", tenantID, name, ver), nil
}

// Bump increments the tenant version and publishes it.
func (l *Ledger) Bump(ctx context.Context, tenantID int64) error {
	if l == nil || l.client == nil {
		return nil
	}
	ver, err := l.client.Incr(ctx, versionKey(tenantID)).Result()
	if err != nil {
		return fmt.Errorf("platform/cache: bump: %w", err)
	}
	payload := strconv.FormatInt(tenantID, 10) + ":" + strconv.FormatInt(ver, 10)
	return l.client.Publish(ctx, BumpChannel, payload).Err()
}
