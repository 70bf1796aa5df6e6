package notify

import (
	"context"
	"fmt"
	"time"

	"fmac-task/internal/realtime"
)

// HubNotifier pushes notifications to the websocket clients of every
// recipient except the actor.
type HubNotifier struct {
	hub        *realtime.Hub
	recipients Recipients
	now        func() time.Time
}

func NewHubNotifier(hub *realtime.Hub, recipients Recipients) *HubNotifier {
	return &HubNotifier{hub: hub, recipients: recipients, now: time.Now}
}

func (n *HubNotifier) SendNotification(ctx context.Context, taskID, actorID string, kind Kind) error {
	users, err := n.recipients(ctx, taskID)
	if err != nil {
		return fmt.Errorf("notify: resolve recipients for %s: %w", taskID, err)
	}
	ev := realtime.Event{
		Type:    "notification",
		TaskID:  taskID,
		ActorID: actorID,
		Kind:    string(kind),
		At:      n.now().UTC().Format(time.RFC3339),
	}
	for _, u := range users {
		if u == actorID {
			continue
		}
		if _, err := n.hub.Publish(u, ev); err != nil {
			return fmt.Errorf("notify: publish to %s: %w", u, err)
		}
	}
	return nil
}
