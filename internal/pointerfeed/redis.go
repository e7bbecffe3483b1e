package pointerfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"family-ledger/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "family-pointer"

// Redis fans pointer changes out through Redis pub/sub so that watchers in
// other processes observe writes made here.
type Redis struct {
	client *redis.Client
	prefix string
	log    logger.Logger
}

func NewRedis(client *redis.Client, prefix string, log logger.Logger) *Redis {
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return &Redis{client: client, prefix: prefix, log: log}
}

func (r *Redis) channel(userID string) string {
	return r.prefix + ":" + userID
}

func (r *Redis) Publish(ctx context.Context, change PointerChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encode pointer change: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(change.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish pointer change: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, userID string) (<-chan PointerChange, func(), error) {
	pubsub := r.client.Subscribe(ctx, r.channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe pointer changes: %w", err)
	}

	out := make(chan PointerChange, hubBufferSize)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(out)
		messages := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change PointerChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					r.log.InternalError("pointerfeed.redis: decode failed", err, "channel", msg.Channel)
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				r.log.InternalError("pointerfeed.redis: close failed", err, "user_id", userID)
			}
		})
	}
	return out, cancel, nil
}
