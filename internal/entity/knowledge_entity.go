package entity

import "time"

// Material kinds as stored in materials.json.
const (
	MaterialKindImage = "image"
	MaterialKindFile  = "file"
)

// Topic is one top-level knowledge-base section, backed by a directory
// under the texts area.
type Topic struct {
	Name      string
	Subtopics []string
}

// Material is an image or generic file attached to one (topic, subtopic)
// pair.
type Material struct {
	Id      string `json:"id"`
	Path    string `json:"path"`
	Caption string `json:"caption"`
	Kind    string `json:"type,omitempty"` // empty means image in legacy records
}

// SubtopicContent is a rendered subtopic: its body text plus attached
// materials.
type SubtopicContent struct {
	Text   string
	Images []Material
	Files  []Material
}

// SearchHit is one subtopic whose body matched a search query.
type SearchHit struct {
	Topic    string
	Subtopic string
	Lines    []string
}

// AuditRecord is one content-change entry written by the events consumer.
type AuditRecord struct {
	Event      string                 `json:"event"`
	Details    map[string]interface{} `json:"details"`
	OccurredAt time.Time              `json:"occurred_at"`
}
