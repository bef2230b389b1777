package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tiketku/internal/utils"
)

// WebhookGuard deduplicates provider webhook deliveries with a Redis SetNX
// marker per (provider, transaction, event). It is an optimization in front
// of the conditional status transitions, which remain the source of truth:
// when Redis is down or unconfigured the guard admits everything and the DB
// rejects the replay.
type WebhookGuard struct {
	Client    *redis.Client
	TTL       time.Duration
	RequestID string
}

func (g *WebhookGuard) key(provider, txID, event string) string {
	return "webhook:" + provider + ":" + txID + ":" + event
}

// Acquire reports whether this delivery is the first of its kind. A second
// delivery of the same event for the same transaction returns false.
func (g *WebhookGuard) Acquire(ctx context.Context, provider, txID, event string) bool {
	if g == nil || g.Client == nil {
		return true
	}
	ttl := g.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ok, err := g.Client.SetNX(ctx, g.key(provider, txID, event), 1, ttl).Result()
	if err != nil {
		utils.LogEvent(g.RequestID, "webhook", "guard", "redis tidak tersedia, lanjut tanpa dedup: "+err.Error())
		return true
	}
	return ok
}

// Release drops the marker after a processing failure so the provider's
// retry of the same delivery is admitted again.
func (g *WebhookGuard) Release(ctx context.Context, provider, txID, event string) {
	if g == nil || g.Client == nil {
		return
	}
	if err := g.Client.Del(ctx, g.key(provider, txID, event)).Err(); err != nil {
		utils.LogEvent(g.RequestID, "webhook", "guard", "gagal hapus marker: "+err.Error())
	}
}
