package events

import "time"

// Event type codes emitted by the conversation layer.
const (
	EventTopicAdded      = "TOPIC_ADDED"
	EventSubtopicAdded   = "SUBTOPIC_ADDED"
	EventMaterialAdded   = "MATERIAL_ADDED"
	EventMaterialUpdated = "MATERIAL_UPDATED"
	EventMaterialDeleted = "MATERIAL_DELETED"
)

// Event is the contract for knowledge-base change events
// (e.g. "TOPIC_ADDED", "MATERIAL_DELETED").
type Event interface {
	// EventType returns the unique code for this event.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// ContentEvent is the concrete event emitted for every repository
// mutation: topic/subtopic creation and material add/update/delete.
type ContentEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e ContentEvent) EventType() string {
	return e.Type
}

func (e ContentEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e ContentEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewContentEvent stamps an event with the current time.
func NewContentEvent(eventType string, data map[string]interface{}) ContentEvent {
	return ContentEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
