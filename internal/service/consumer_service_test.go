package service

import (
	"context"
	"testing"
	"time"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTrailBoundedNewestFirst(t *testing.T) {
	trail := NewAuditTrail(3)
	for i := 0; i < 5; i++ {
		trail.Append(entity.AuditRecord{Event: string(rune('A' + i)), OccurredAt: time.Now()})
	}

	records := trail.List(0)
	require.Len(t, records, 3)
	assert.Equal(t, "E", records[0].Event)
	assert.Equal(t, "C", records[2].Event)

	records = trail.List(2)
	require.Len(t, records, 2)
	assert.Equal(t, "E", records[0].Event)
}

func TestPublishedEventsReachAuditTrail(t *testing.T) {
	// Persistent delivery so the publish below cannot race the
	// consumer's subscription.
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	trail := NewAuditTrail(10)
	consumer := NewEventConsumerService(pubSub, trail, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Run(ctx)

	publisher := NewEventPublisherService(pubSub, nil, nopLogger{})
	publisher.PublishContent(events.NewContentEvent(events.EventTopicAdded, map[string]interface{}{"topic": "Зарплата"}))

	require.Eventually(t, func() bool {
		return len(trail.List(0)) == 1
	}, time.Second, 10*time.Millisecond)

	record := trail.List(1)[0]
	assert.Equal(t, events.EventTopicAdded, record.Event)
	assert.Equal(t, "Зарплата", record.Details["topic"])
}
