// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	usageKeyPrefix = "usage:"

	// usageTTL keeps yesterday's counters around briefly so a day
	// boundary in another time zone still reads sensibly.
	usageTTL = 48 * time.Hour
)

// Usage counts successful provider calls per user per UTC day. The counts
// are displayed next to each provider's free-tier limit; nothing is ever
// refused because of them.
type Usage struct {
	client *redis.Client
	now    func() time.Time
}

// NewUsage creates a usage counter backed by the given Valkey client.
func NewUsage(client *redis.Client) *Usage {
	return &Usage{client: client, now: time.Now}
}

// Record adds one call for each adapter in adapters. Failures are logged
// and swallowed since the counters are informational.
func (u *Usage) Record(ctx context.Context, owner string, adapters ...string) {
	if len(adapters) == 0 {
		return
	}
	day := u.day()
	pipe := u.client.TxPipeline()
	for _, a := range adapters {
		key := usageKey(owner, day, a)
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, usageTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("usage record error", "error", err)
	}
}

// Today returns the calls recorded for owner since midnight UTC, keyed by
// adapter.
func (u *Usage) Today(ctx context.Context, owner string) map[string]int64 {
	prefix := usageKey(owner, u.day(), "")
	counts := make(map[string]int64)

	var cursor uint64
	for {
		keys, next, err := u.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			slog.Warn("usage scan error", "error", err)
			return counts
		}
		for _, key := range keys {
			n, err := u.client.Get(ctx, key).Int64()
			if err != nil {
				continue
			}
			counts[strings.TrimPrefix(key, prefix)] = n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return counts
}

// Reset removes every counter for owner.
func (u *Usage) Reset(ctx context.Context, owner string) {
	var cursor uint64
	for {
		keys, next, err := u.client.Scan(ctx, cursor, usageKeyPrefix+ownerHash(owner)+":*", 100).Result()
		if err != nil {
			slog.Warn("usage scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := u.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("usage delete error", "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func (u *Usage) day() string {
	return u.now().UTC().Format(time.DateOnly)
}

func usageKey(owner, day, adapter string) string {
	return usageKeyPrefix + ownerHash(owner) + ":" + day + ":" + adapter
}

func ownerHash(owner string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(owner))))
	return hex.EncodeToString(sum[:8])
}
