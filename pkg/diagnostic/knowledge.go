package diagnostic

import (
	"encoding/json"
	"fmt"
	"os"
)

// Answer tokens accepted by the engine. Matching is case-insensitive.
const (
	AnswerYes = "да"
	AnswerNo  = "нет"
)

// Condition decides whether a topic's related action fires once the
// question sequence is exhausted. Only one kind exists today; the type is
// kept open for future variants.
type Condition string

const (
	ConditionAllYes Condition = "all_yes"
)

// Question is one yes/no step of a topic, carrying the response fragment
// for each answer. An empty fragment contributes nothing to the final
// answer.
type Question struct {
	Text string `json:"text"`
	Yes  string `json:"yes"`
	No   string `json:"no"`
}

// RelatedAction links a topic to a knowledge-base subtopic whose
// instruction is offered when Condition holds over the recorded answers.
type RelatedAction struct {
	Topic     string    `json:"topic"`
	Subtopic  string    `json:"subtopic"`
	Condition Condition `json:"condition"`
}

// Satisfied evaluates the condition over the full accumulated answer set.
func (a *RelatedAction) Satisfied(answers map[int]string) bool {
	switch a.Condition {
	case ConditionAllYes:
		for _, answer := range answers {
			if answer != AnswerYes {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Topic is one keyword-triggered diagnostic script.
type Topic struct {
	ID        string         `json:"id"`
	Keywords  []string       `json:"keywords"`
	Questions []Question     `json:"questions"`
	Related   *RelatedAction `json:"related,omitempty"`
}

// KnowledgeBase is the static diagnostic table. Declaration order matters:
// keyword matching returns the first topic that hits, so the slice order is
// the tie-break. The table is immutable after load.
type KnowledgeBase struct {
	topics []Topic
}

// New builds a knowledge base from an ordered topic list.
func New(topics []Topic) *KnowledgeBase {
	return &KnowledgeBase{topics: topics}
}

// Topics returns the topics in declaration order.
func (kb *KnowledgeBase) Topics() []Topic {
	return kb.topics
}

// Get looks a topic up by id.
func (kb *KnowledgeBase) Get(id string) (*Topic, bool) {
	for i := range kb.topics {
		if kb.topics[i].ID == id {
			return &kb.topics[i], true
		}
	}
	return nil, false
}

// LoadFile reads a knowledge base from a JSON file (ordered array of
// topics). Used to override the built-in table at startup.
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diagnostic knowledge base: %w", err)
	}
	var topics []Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to parse diagnostic knowledge base: %w", err)
	}
	return New(topics), nil
}

// Default returns the built-in table shipped with the bot: the
// document-signing script for the 1C workflow.
func Default() *KnowledgeBase {
	return New([]Topic{
		{
			ID: "документ_подписание",
			Keywords: []string{
				"документ", "подписание", "подписать", "подписан",
				"подписывать", "не приходит", "не поступает",
			},
			Questions: []Question{
				{
					Text: "У вас не приходит документ на подписание?",
					Yes:  "Проверьте настройки маршрутизации документов в системе.",
					No:   "Опишите проблему более подробно, возможно, дело не в подписании документов.",
				},
				{
					Text: "Не приходит МОЛу?",
					Yes:  "Проверьте настройки прав МОЛа и его учетную запись в системе.",
					No:   "Тогда проблема может быть в настройках конкретного пользователя. Проверьте его учетную запись и права доступа.",
				},
				{
					Text: "Есть ли в справочнике сотрудники дубли?",
					Yes:  "Удалите дубликаты сотрудников и перенастройте адресацию.",
					No:   "Тогда проблема может быть в настройках маршрутизации. Проверьте правила маршрутизации документов в системе.",
				},
			},
			Related: &RelatedAction{
				Topic:     "ОЦО ЦБ",
				Subtopic:  "не_поступила_задача_на_подписание_молу",
				Condition: ConditionAllYes,
			},
		},
	})
}
