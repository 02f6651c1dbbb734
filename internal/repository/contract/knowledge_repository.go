package contract

import (
	"context"
	"errors"

	"kb-assistant-be/internal/entity"
)

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrTopicExists      = errors.New("topic already exists")
	ErrSubtopicNotFound = errors.New("subtopic not found")
	ErrSubtopicExists   = errors.New("subtopic already exists")
	ErrMaterialNotFound = errors.New("material not found")
)

// KnowledgeRepository is the content store consumed by the conversation
// state machine. Subtopic names are matched case-insensitively with spaces
// normalized to underscores; implementations own that normalization so
// callers never compare names themselves.
type KnowledgeRepository interface {
	ListTopics(ctx context.Context) ([]string, error)
	HasTopic(ctx context.Context, name string) (bool, error)
	TopicDescription(ctx context.Context, topic string) (string, error)
	AddTopic(ctx context.Context, name string) error

	// ListSubtopics excludes the reserved "_description" entry.
	ListSubtopics(ctx context.Context, topic string) ([]string, error)
	// FindSubtopic resolves a user-typed name to the canonical subtopic
	// name, applying normalization. Returns false when nothing matches.
	FindSubtopic(ctx context.Context, topic, name string) (string, bool, error)
	AddSubtopic(ctx context.Context, topic, name string) error

	// SubtopicContent returns the body text plus attached materials.
	SubtopicContent(ctx context.Context, topic, subtopic string) (*entity.SubtopicContent, error)

	Search(ctx context.Context, query string) ([]entity.SearchHit, error)

	// Materials are keyed by "Topic/Subtopic".
	ListMaterials(ctx context.Context, topicKey string) ([]entity.Material, error)
	AddMaterial(ctx context.Context, topicKey, path, caption, kind string) (string, error)
	GetMaterial(ctx context.Context, topicKey, id, kind string) (*entity.Material, error)
	UpdateMaterial(ctx context.Context, topicKey, id, newCaption, newPath, kind string) error
	DeleteMaterial(ctx context.Context, topicKey, id, kind string) error

	// CreateTextFile persists generated text-material bodies in the files
	// area; SaveUpload stores raw uploaded bytes in the images or files
	// area depending on kind.
	CreateTextFile(ctx context.Context, text, filename string) (string, error)
	SaveUpload(ctx context.Context, data []byte, filename, kind string) (string, error)
}
