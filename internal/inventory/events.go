package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/pcrdb/internal/logger"
)

// EventType names a committed lifecycle transition
type EventType string

const (
	EventCheckout      EventType = "checkout"
	EventActivateUse   EventType = "activate_use"
	EventFinish        EventType = "finish"
	EventNotFound      EventType = "not_found"
	EventMakeAvailable EventType = "make_available"
	EventImported      EventType = "imported"
	EventDeleted       EventType = "deleted"
)

// Event is published after a transition has been committed
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	SampleID       uint      `json:"sample_id"`
	InternalNumber string    `json:"internal_number"`
	User           string    `json:"user,omitempty"`
	VolumeUsed     float64   `json:"volume_used,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher receives lifecycle events. Implementations must not block for long;
// publish errors are logged and never undo the transition.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

func (s *Service) newEvent(t EventType, sampleID uint, internalNumber, user string) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           t,
		SampleID:       sampleID,
		InternalNumber: internalNumber,
		User:           user,
		At:             s.now(),
	}
}

func (s *Service) publish(ctx context.Context, events ...Event) {
	for _, p := range s.publishers {
		for i := range events {
			err := p.Publish(ctx, events[i])
			s.publishMetrics.RecordPublish(p.Name(), err)
			if err != nil {
				s.log.Warn("failed to publish event",
					logger.String("publisher", p.Name()),
					logger.String("event", string(events[i].Type)),
					logger.String("internal_number", events[i].InternalNumber),
					logger.Error(err))
			}
		}
	}
}
