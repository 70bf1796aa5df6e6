package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel notifications are published on.
const DefaultChannel = "fmac:notifications"

// Message is the payload published on the channel.
type Message struct {
	TaskID  string `json:"taskId"`
	ActorID string `json:"actorId"`
	Kind    Kind   `json:"kind"`
	At      string `json:"at"`
}

// RedisNotifier publishes notifications for out-of-process consumers such as
// email or push workers.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel, now: time.Now}
}

func (n *RedisNotifier) Channel() string { return n.channel }

func (n *RedisNotifier) SendNotification(ctx context.Context, taskID, actorID string, kind Kind) error {
	raw, err := json.Marshal(Message{
		TaskID:  taskID,
		ActorID: actorID,
		Kind:    kind,
		At:      n.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("notify: publish %s: %w", n.channel, err)
	}
	return nil
}
