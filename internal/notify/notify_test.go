package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"fmac-task/internal/realtime"
)

type recordingClient struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *recordingClient) Send(m []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return true
}

func (c *recordingClient) Close() {}

func TestHubNotifier_SkipsActor(t *testing.T) {
	hub := realtime.NewHub()
	actor, other := &recordingClient{}, &recordingClient{}
	hub.Register("u1", actor)
	hub.Register("u2", other)

	n := NewHubNotifier(hub, func(context.Context, string) ([]string, error) {
		return []string{"u1", "u2"}, nil
	})
	require.NoError(t, n.SendNotification(context.Background(), "t1", "u1", KindComment))
	require.Empty(t, actor.msgs)
	require.Len(t, other.msgs, 1)

	var ev realtime.Event
	require.NoError(t, json.Unmarshal(other.msgs[0], &ev))
	require.Equal(t, "comment", ev.Kind)
	require.Equal(t, "u1", ev.ActorID)
}

func TestHubNotifier_ResolveError(t *testing.T) {
	n := NewHubNotifier(realtime.NewHub(), func(context.Context, string) ([]string, error) {
		return nil, errors.New("gone")
	})
	require.Error(t, n.SendNotification(context.Background(), "t1", "u1", KindAssignment))
}

func TestRedisNotifier_Publishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	n := NewRedisNotifier(client, "")
	sub := client.Subscribe(ctx, n.Channel())
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, n.SendNotification(ctx, "t1", "u1", KindAssignment))
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Message
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	require.Equal(t, "t1", got.TaskID)
	require.Equal(t, KindAssignment, got.Kind)
}

type failing struct{}

func (failing) SendNotification(context.Context, string, string, Kind) error {
	return errors.New("down")
}

func TestMulti_JoinsErrorsAndContinues(t *testing.T) {
	hub := realtime.NewHub()
	c := &recordingClient{}
	hub.Register("u2", c)
	hubN := NewHubNotifier(hub, func(context.Context, string) ([]string, error) { return []string{"u2"}, nil })

	err := Multi{failing{}, Log{}, hubN}.SendNotification(context.Background(), "t1", "u1", KindStatus)
	require.Error(t, err)
	require.Len(t, c.msgs, 1)
}
