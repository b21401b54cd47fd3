package health

import (
	"context"

	"github.com/avatarctic/avatar-proxy/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// Pinger is anything that can cheaply verify its upstream connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// directoryHealthChecker probes the directory service's auth endpoint rather
// than listing the roster, which would be needlessly expensive.
type directoryHealthChecker struct{ pinger Pinger }

func (d *directoryHealthChecker) Name() string                    { return "directory" }
func (d *directoryHealthChecker) Check(ctx context.Context) error { return d.pinger.Ping(ctx) }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewDirectoryHealthChecker creates a health checker for the directory service.
func NewDirectoryHealthChecker(pinger Pinger) ports.HealthChecker {
	return &directoryHealthChecker{pinger: pinger}
}
