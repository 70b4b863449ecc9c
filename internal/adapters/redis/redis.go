// Package redis holds the shared go-redis plumbing used by the Redis adapters.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key written by the adapters.
const DefaultKeyPrefix = "travels:"

// NewClient parses a redis:// or rediss:// URL, opens a client, and verifies connectivity.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	if url == "" {
		return nil, errors.New("missing REDIS_URL")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// Keyspace builds namespaced keys.
type Keyspace struct {
	prefix string
}

func NewKeyspace(prefix string) Keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

// Key joins parts with ':' under the prefix.
func (k Keyspace) Key(parts ...string) string {
	return k.prefix + strings.Join(parts, ":")
}
