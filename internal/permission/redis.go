package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier fans permission changes out over a Redis pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedisNotifier connects to url. It returns nil, nil when url is empty.
func NewRedisNotifier(ctx context.Context, url, channel string, log *zap.Logger) (*RedisNotifier, error) {
	if url == "" {
		return nil, nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisNotifier{
		client:  client,
		channel: channel,
		log:     log.With(zap.String("component", "permission_notifier")),
	}, nil
}

var _ Notifier = (*RedisNotifier)(nil)

func (n *RedisNotifier) Publish(ctx context.Context, snapshotID string) error {
	return n.client.Publish(ctx, n.channel, snapshotID).Err()
}

// Subscribe calls onChange for every announced snapshot id until ctx is done.
func (n *RedisNotifier) Subscribe(ctx context.Context, onChange func(ctx context.Context, snapshotID string)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	n.log.Info("listening for permission changes", zap.String("channel", n.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			onChange(ctx, msg.Payload)
		}
	}
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
