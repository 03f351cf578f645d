package history

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each session as a capped list under room:<session>:buffer.
type Redis struct {
	client *redis.Client
	size   int
	ttl    time.Duration
}

func NewRedis(ctx context.Context, addr string, size int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &Redis{client: client, size: size, ttl: ttl}, nil
}

func bufferKey(session string) string {
	return fmt.Sprintf("room:%s:buffer", session)
}

func (r *Redis) Recent(ctx context.Context, session string) ([]string, error) {
	chunks, err := r.client.LRange(ctx, bufferKey(session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return chunks, nil
}

func (r *Redis) Append(ctx context.Context, session, text string) error {
	if r.size <= 0 {
		return nil
	}

	key := bufferKey(session)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, text)
		p.LTrim(ctx, key, int64(-r.size), -1)
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
