package service

import (
	"context"
	"encoding/json"
	"time"

	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/pkg/events"
	natspkg "kb-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ContentEventsTopic is the in-process bus topic for knowledge-base
// change events.
const ContentEventsTopic = "content.events"

// contentEventEnvelope is the wire form of a ContentEvent on the bus.
type contentEventEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// EventPublisherService fans content events out to the in-process bus
// and, when configured, mirrors them to NATS. Neither path may fail the
// dialog: errors are logged and dropped.
type EventPublisherService struct {
	bus  message.Publisher
	nats *natspkg.Publisher
	log  logger.ILogger
}

func NewEventPublisherService(bus message.Publisher, natsPub *natspkg.Publisher, log logger.ILogger) *EventPublisherService {
	return &EventPublisherService{bus: bus, nats: natsPub, log: log}
}

func (s *EventPublisherService) PublishContent(event events.ContentEvent) {
	payload, err := json.Marshal(contentEventEnvelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		s.log.Error("events", "failed to marshal content event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.bus.Publish(ContentEventsTopic, msg); err != nil {
		s.log.Error("events", "failed to publish content event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	}

	if s.nats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.nats.Publish(ctx, event); err != nil {
			s.log.Warn("events", "failed to mirror content event to NATS", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}
}
