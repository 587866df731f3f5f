package comms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mazeswarm-dev/mazeswarm/pkg/observability"
)

// RedisChannel is a Channel backed by Redis lists, one list per agent inbox.
// It lets the swarm span multiple processes while keeping the same
// best-effort contract: transport errors are swallowed and counted, never
// surfaced to the sender.
type RedisChannel struct {
	client *redis.Client
	prefix string
	ctx    context.Context
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all inbox keys (default: "mazeswarm:inbox:").
	Prefix string
}

// NewRedisChannel connects to Redis and verifies the connection.
func NewRedisChannel(cfg RedisConfig) (*RedisChannel, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisChannelFromClient(client, cfg.Prefix), nil
}

// NewRedisChannelFromClient builds a channel from an existing client.
// This is useful for testing with miniredis.
func NewRedisChannelFromClient(client *redis.Client, prefix string) *RedisChannel {
	if prefix == "" {
		prefix = "mazeswarm:inbox:"
	}
	return &RedisChannel{
		client: client,
		prefix: prefix,
		ctx:    context.Background(),
	}
}

func (c *RedisChannel) inboxKey(id string) string {
	return c.prefix + id
}

// Register clears any stale inbox left over from a previous run.
func (c *RedisChannel) Register(id string) {
	if err := c.client.Del(c.ctx, c.inboxKey(id)).Err(); err != nil {
		log.Printf("[comms] failed to reset inbox for %s: %v", id, err)
	}
}

// Send pushes msg onto the recipient's inbox list. Errors are dropped
// silently per the channel contract.
func (c *RedisChannel) Send(from, to string, msg *Message) {
	if from == to {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		observability.RecordMessageDropped("encode")
		return
	}

	if err := c.client.RPush(c.ctx, c.inboxKey(to), data).Err(); err != nil {
		observability.RecordMessageDropped("transport")
		return
	}
	observability.RecordMessageSent(msg.Type)
}

// Poll atomically drains the inbox list for id. Entries that fail to decode
// are dropped and counted.
func (c *RedisChannel) Poll(id string) []*Message {
	key := c.inboxKey(id)

	pipe := c.client.TxPipeline()
	entries := pipe.LRange(c.ctx, key, 0, -1)
	pipe.Del(c.ctx, key)
	if _, err := pipe.Exec(c.ctx); err != nil {
		observability.RecordMessageDropped("transport")
		return nil
	}

	raw, err := entries.Result()
	if err != nil {
		observability.RecordMessageDropped("transport")
		return nil
	}

	msgs := make([]*Message, 0, len(raw))
	for _, r := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			observability.RecordMessageMalformed()
			continue
		}
		msgs = append(msgs, &msg)
	}
	return msgs
}

// Ping checks the Redis connection, for health checks.
func (c *RedisChannel) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *RedisChannel) Close() error {
	return c.client.Close()
}
