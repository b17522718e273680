package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// HeaderIdempotencyKey lets clients retry a create without producing a
// second row.
const HeaderIdempotencyKey = "Idempotency-Key"

// RedisDeduper stores seen idempotency keys in Redis so all instances agree
// on which create requests were already processed.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, scope, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(scope, key), 1, r.ttl).Result()
}

// Remove deletes a previously recorded key so the client may retry after a
// failed request.
func (r *RedisDeduper) Remove(ctx context.Context, scope, key string) error {
	return r.client.Del(ctx, r.key(scope, key)).Err()
}

// Idempotent rejects a repeated Idempotency-Key for the same user and route
// with 409. Requests without the header, or with a nil deduper, pass through.
// When Redis is unavailable the request is processed without deduplication.
func Idempotent(d Deduper, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if d == nil {
			return next
		}
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			scope := userIDFrom(c) + ":" + c.Path()

			added, err := d.Add(ctx, scope, key)
			if err != nil {
				if logger != nil {
					logger.WithError(err).Warn("idempotency check failed; processing request")
				}
				return next(c)
			}
			if !added {
				return echo.NewHTTPError(http.StatusConflict, "Duplicate request")
			}

			if err := next(c); err != nil {
				if rerr := d.Remove(context.WithoutCancel(ctx), scope, key); rerr != nil && logger != nil {
					logger.WithError(rerr).Warn("release idempotency key")
				}
				return err
			}
			return nil
		}
	}
}
