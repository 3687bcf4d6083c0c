package credstore

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	redisclient "github.com/aelexs/todo-session-client/internal/redis"
)

var tracer = otel.Tracer("credstore")

// DefaultKeyPrefix namespaces credential keys in a shared Redis.
const DefaultKeyPrefix = "todo:session:"

// Redis keeps credentials in Redis so several client processes on one host
// (CLI and view host) see the same session. Keys carry no TTL: expiry is
// decided by the claims inside the credential, not by the store.
type Redis struct {
	cmd    redisclient.Cmdable
	prefix string
}

// NewRedis creates a Redis store. An empty prefix uses DefaultKeyPrefix.
func NewRedis(cmd redisclient.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{cmd: cmd, prefix: prefix}
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := r.start(ctx, "credstore.redis.get", "GET")
	defer span.End()

	v, err := r.cmd.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redisclient.Nil) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// Set stores value under key.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	ctx, span := r.start(ctx, "credstore.redis.set", "SET")
	defer span.End()

	if err := r.cmd.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.RemoveAll(ctx, key)
}

// RemoveAll deletes keys with a single DEL, so the pair disappears atomically.
func (r *Redis) RemoveAll(ctx context.Context, keys ...string) error {
	ctx, span := r.start(ctx, "credstore.redis.del", "DEL")
	defer span.End()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.prefix + k
	}
	if err := r.cmd.Del(ctx, full...).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete %v: %w", keys, err)
	}
	return nil
}

func (r *Redis) start(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", op),
	)
	return ctx, span
}

var (
	_ Store        = (*Redis)(nil)
	_ multiRemover = (*Redis)(nil)
)
