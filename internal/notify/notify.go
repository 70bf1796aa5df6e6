// Package notify delivers task notifications. Delivery is fire-and-forget:
// callers queue SendNotification after a successful mutation and only log
// its error.
package notify

import (
	"context"
	"errors"
	"log"
)

// Kind is the reason a notification was sent.
type Kind string

const (
	KindComment    Kind = "comment"
	KindAssignment Kind = "assignment"
	KindStatus     Kind = "status"
)

// Notifier is the notification collaborator.
type Notifier interface {
	SendNotification(ctx context.Context, taskID, actorID string, kind Kind) error
}

// Recipients resolves who should hear about a task.
type Recipients func(ctx context.Context, taskID string) ([]string, error)

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) SendNotification(ctx context.Context, taskID, actorID string, kind Kind) error {
	var errs []error
	for _, n := range m {
		if err := n.SendNotification(ctx, taskID, actorID, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log only writes a log line. It is the default when nothing else is
// configured.
type Log struct{}

func (Log) SendNotification(_ context.Context, taskID, actorID string, kind Kind) error {
	log.Printf("notify: %s on task %s by %s", kind, taskID, actorID)
	return nil
}
