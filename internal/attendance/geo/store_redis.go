package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"rollcall/pkg/platform/sentinel"
)

var resolveDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "rollcall_anchor_resolve_duration_ms",
	Help:    "Latency of class anchor lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
})

const anchorKeyPrefix = "geo:class:"

// RedisAnchorStore reads and publishes class anchors in the external
// key-value location store. Implements Resolver and Publisher.
type RedisAnchorStore struct {
	client *redis.Client
}

// NewRedisAnchorStore constructs a Redis-backed anchor store.
func NewRedisAnchorStore(client *redis.Client) *RedisAnchorStore {
	return &RedisAnchorStore{client: client}
}

// Resolve fetches the anchor for a class. Returns sentinel.ErrNotFound when
// no anchor has been published and sentinel.ErrUnavailable on store failure.
func (s *RedisAnchorStore) Resolve(ctx context.Context, classID string) (Anchor, error) {
	start := time.Now()
	defer func() {
		resolveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, anchorKeyPrefix+classID).Result()
	if errors.Is(err, redis.Nil) {
		return Anchor{}, fmt.Errorf("anchor for class %q: %w", classID, sentinel.ErrNotFound)
	}
	if err != nil {
		return Anchor{}, fmt.Errorf("anchor lookup: %w: %w", sentinel.ErrUnavailable, err)
	}

	var anchor Anchor
	if err := json.Unmarshal([]byte(raw), &anchor); err != nil {
		return Anchor{}, fmt.Errorf("decode anchor for class %q: %w", classID, err)
	}
	anchor.ClassID = classID
	return anchor, nil
}

// Publish stores the anchor for its class, replacing any previous one.
func (s *RedisAnchorStore) Publish(ctx context.Context, anchor Anchor) error {
	payload, err := json.Marshal(anchor)
	if err != nil {
		return fmt.Errorf("encode anchor: %w", err)
	}
	if err := s.client.Set(ctx, anchorKeyPrefix+anchor.ClassID, payload, 0).Err(); err != nil {
		return fmt.Errorf("publish anchor: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
