package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/inventory"
)

// EventPublisher forwards committed lifecycle events as JSON to
// <topic>/samples/<internal number>.
type EventPublisher struct {
	client Client
	topic  string
}

// NewEventPublisher wraps a connected client
func NewEventPublisher(client Client, topic string) *EventPublisher {
	return &EventPublisher{client: client, topic: strings.TrimSuffix(topic, "/")}
}

// Name implements inventory.Publisher
func (p *EventPublisher) Name() string { return component }

// Publish implements inventory.Publisher
func (p *EventPublisher) Publish(ctx context.Context, event inventory.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryGeneric).
			Context("operation", "encode_event").
			Build()
	}
	return p.client.Publish(ctx, p.Topic(event), payload)
}

// Topic returns the topic an event is published on. Topic wildcards and
// separators in the internal number are replaced so each sample maps to one level.
func (p *EventPublisher) Topic(event inventory.Event) string {
	level := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(event.InternalNumber)
	return p.topic + "/samples/" + level
}
