package service

import (
	"context"
	"encoding/json"
	"sync"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

// AuditTrail is a bounded in-memory log of content changes, newest first,
// served by the admin API.
type AuditTrail struct {
	mu      sync.RWMutex
	records []entity.AuditRecord
	cap     int
}

func NewAuditTrail(capacity int) *AuditTrail {
	if capacity <= 0 {
		capacity = 1000
	}
	return &AuditTrail{cap: capacity}
}

func (t *AuditTrail) Append(record entity.AuditRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
	if len(t.records) > t.cap {
		t.records = t.records[len(t.records)-t.cap:]
	}
}

// List returns up to limit records, newest first.
func (t *AuditTrail) List(limit int) []entity.AuditRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || limit > len(t.records) {
		limit = len(t.records)
	}
	out := make([]entity.AuditRecord, 0, limit)
	for i := len(t.records) - 1; i >= len(t.records)-limit; i-- {
		out = append(out, t.records[i])
	}
	return out
}

// EventConsumerService drains the content bus into the audit trail.
type EventConsumerService struct {
	subscriber message.Subscriber
	audit      *AuditTrail
	log        logger.ILogger
}

func NewEventConsumerService(subscriber message.Subscriber, audit *AuditTrail, log logger.ILogger) *EventConsumerService {
	return &EventConsumerService{subscriber: subscriber, audit: audit, log: log}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (s *EventConsumerService) Run(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, ContentEventsTopic)
	if err != nil {
		return err
	}

	s.log.Info("events", "content event consumer started", nil)
	for msg := range messages {
		var envelope contentEventEnvelope
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			s.log.Error("events", "dropping malformed content event", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		s.audit.Append(entity.AuditRecord{
			Event:      envelope.Type,
			Details:    envelope.Data,
			OccurredAt: envelope.OccurredAt,
		})
		msg.Ack()
	}
	return nil
}
