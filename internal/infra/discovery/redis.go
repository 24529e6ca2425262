package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Redis keeps candidates in one sorted set per server type. The score is the
// server's priority; lower scores are tried first.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func serversKey(serverType string) string {
	return fmt.Sprintf("rpc_servers:%s", serverType)
}

// DiscoverServers returns the candidates of serverType ordered by priority.
func (r *Redis) DiscoverServers(ctx context.Context, serverType string) ([]string, error) {
	servers, err := r.rdb.ZRange(ctx, serversKey(serverType), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	return servers, nil
}

// Register adds or re-prioritises serverID under serverType.
func (r *Redis) Register(ctx context.Context, serverType, serverID string, priority float64) error {
	if err := r.rdb.ZAdd(ctx, serversKey(serverType), redis.Z{
		Score:  priority,
		Member: serverID,
	}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// Deregister removes serverID from serverType.
func (r *Redis) Deregister(ctx context.Context, serverType, serverID string) error {
	if err := r.rdb.ZRem(ctx, serversKey(serverType), serverID).Err(); err != nil {
		return fmt.Errorf("zrem failed: %w", err)
	}
	return nil
}

// Clear removes every candidate of serverType.
func (r *Redis) Clear(ctx context.Context, serverType string) error {
	return r.rdb.Del(ctx, serversKey(serverType)).Err()
}
