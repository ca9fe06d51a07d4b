package authz

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/crewplane/crewplane/pkg/observability"
)

// DefaultInvalidationChannel is the Redis pub/sub channel used to fan out
// capability cache invalidations across instances.
const DefaultInvalidationChannel = "crewplane:authz:invalidate"

// RedisInvalidator propagates cache invalidations through Redis pub/sub so
// a role or plan edit on one instance evicts stale capability maps
// everywhere. Messages are "user:<id>" or "org:<id>".
type RedisInvalidator struct {
	client  *redis.Client
	cache   *CapabilityCache
	log     *observability.Logger
	channel string
}

// NewRedisInvalidator creates an invalidator over client and cache. An
// empty channel uses DefaultInvalidationChannel.
func NewRedisInvalidator(client *redis.Client, cache *CapabilityCache, log *observability.Logger, channel string) *RedisInvalidator {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &RedisInvalidator{client: client, cache: cache, log: log, channel: channel}
}

// InvalidateUser evicts one user locally and broadcasts the eviction.
func (r *RedisInvalidator) InvalidateUser(ctx context.Context, userID int64) {
	r.cache.Invalidate(userID)
	r.publish(ctx, fmt.Sprintf("user:%d", userID))
}

// InvalidateOrg evicts an organization's users locally and broadcasts the
// eviction. Satisfies orgs.Invalidator.
func (r *RedisInvalidator) InvalidateOrg(ctx context.Context, orgID int64) {
	r.cache.InvalidateOrg(ctx, orgID)
	r.publish(ctx, fmt.Sprintf("org:%d", orgID))
}

func (r *RedisInvalidator) publish(ctx context.Context, msg string) {
	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		// The local eviction already happened; peers fall back to
		// their cache TTL.
		r.log.WithError(err).Warn("failed to broadcast cache invalidation")
	}
}

// Listen applies invalidations published by other instances until ctx is
// cancelled. Intended to run in its own goroutine.
func (r *RedisInvalidator) Listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.apply(ctx, msg.Payload)
		}
	}
}

func (r *RedisInvalidator) apply(ctx context.Context, payload string) {
	kind, raw, ok := strings.Cut(payload, ":")
	if !ok {
		r.log.WithField("payload", payload).Warn("malformed invalidation message")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.log.WithField("payload", payload).Warn("malformed invalidation id")
		return
	}
	switch kind {
	case "user":
		r.cache.Invalidate(id)
	case "org":
		r.cache.InvalidateOrg(ctx, id)
	default:
		r.log.WithField("payload", payload).Warn("unknown invalidation kind")
	}
}
