// Package events relays domain events to external systems after the state
// change that produced them has been committed. Delivery is best effort:
// publishing never blocks and sink failures never reach the caller.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/server/models"
	"github.com/google/uuid"
)

// Publisher accepts events for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, e models.Event)
}

// Sink delivers one event to one destination.
type Sink interface {
	Name() string
	Handle(ctx context.Context, e models.Event) error
}

// New builds an event with a fresh id and the current time.
func New(eventType, email string, details map[string]string) models.Event {
	return models.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Email:      email,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, models.Event) {}
