package diagnostic

import (
	"strings"
	"unicode"

	"kb-assistant-be/pkg/store"
)

// OutcomeKind tags what the engine wants rendered next.
type OutcomeKind int

const (
	// OutcomeQuestion: ask Question with yes/no options.
	OutcomeQuestion OutcomeKind = iota
	// OutcomeFinal: the script is complete, Final holds the composed answer.
	OutcomeFinal
	// OutcomeReprompt: the answer was not yes/no, repeat Question verbatim.
	OutcomeReprompt
)

// Outcome is the engine's instruction to the dialog layer.
type Outcome struct {
	Kind     OutcomeKind
	Question string
	Final    string

	// Recommend is set on OutcomeFinal when the topic's related action
	// condition holds; the dialog layer queues it as the pending
	// instruction.
	Recommend *store.Instruction
}

// Engine walks users through the diagnostic knowledge base.
type Engine struct {
	kb *KnowledgeBase
}

// NewEngine creates an engine over a loaded knowledge base.
func NewEngine(kb *KnowledgeBase) *Engine {
	return &Engine{kb: kb}
}

// MatchTopic scans free text for topic keywords. A keyword counts only as a
// whole-word (word-boundary, case-insensitive) hit. The first topic in
// declaration order with any hit wins; there is no best-match scoring, the
// fixed order keeps behavior deterministic.
func (e *Engine) MatchTopic(freeText string) (*Topic, bool) {
	text := strings.ToLower(freeText)
	for i := range e.kb.topics {
		topic := &e.kb.topics[i]
		for _, keyword := range topic.Keywords {
			if containsWholeWord(text, strings.ToLower(keyword)) {
				return topic, true
			}
		}
	}
	return nil, false
}

// Begin starts the script for a matched topic. Topics with questions get
// their first question; a topic with none falls straight through to the
// final answer over an empty answer set.
func (e *Engine) Begin(topic *Topic, progress *store.DiagnosticProgress) Outcome {
	progress.TopicID = topic.ID
	progress.Question = 0
	progress.Answers = make(map[int]string)

	if len(topic.Questions) == 0 {
		return e.finish(topic, progress)
	}
	return Outcome{Kind: OutcomeQuestion, Question: topic.Questions[0].Text}
}

// Advance consumes one answer. Anything that is not yes/no re-prompts the
// current question without recording or moving.
func (e *Engine) Advance(progress *store.DiagnosticProgress, answer string) Outcome {
	topic, ok := e.kb.Get(progress.TopicID)
	if !ok {
		// Knowledge base changed under a live session; treat as finished.
		return Outcome{Kind: OutcomeFinal}
	}

	// A session persisted against a longer question table than the one
	// currently loaded can point past the end; treat it as finished.
	if progress.Question >= len(topic.Questions) {
		return e.finish(topic, progress)
	}

	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized != AnswerYes && normalized != AnswerNo {
		return Outcome{Kind: OutcomeReprompt, Question: topic.Questions[progress.Question].Text}
	}

	progress.Answers[progress.Question] = normalized

	if progress.Question+1 < len(topic.Questions) {
		progress.Question++
		return Outcome{Kind: OutcomeQuestion, Question: topic.Questions[progress.Question].Text}
	}
	return e.finish(topic, progress)
}

// finish composes the final answer: the fragment for each recorded answer,
// in ascending question order, empty fragments skipped, joined by a blank
// line. The related action is evaluated over the full answer set.
func (e *Engine) finish(topic *Topic, progress *store.DiagnosticProgress) Outcome {
	var fragments []string
	for i := range topic.Questions {
		answer, answered := progress.Answers[i]
		if !answered {
			continue
		}
		fragment := topic.Questions[i].No
		if answer == AnswerYes {
			fragment = topic.Questions[i].Yes
		}
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}

	outcome := Outcome{Kind: OutcomeFinal, Final: strings.Join(fragments, "\n\n")}

	if topic.Related != nil && topic.Related.Satisfied(progress.Answers) {
		outcome.Recommend = &store.Instruction{
			Topic:    topic.Related.Topic,
			Subtopic: topic.Related.Subtopic,
		}
	}
	return outcome
}

// containsWholeWord reports whether phrase occurs in text with non-word
// runes (or the string edges) on both sides. Go's regexp \b only knows
// ASCII word characters, so Cyrillic keywords are matched by hand.
func containsWholeWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; ; {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)

		beforeOK := start == 0 || !isWordRune(lastRune(text[:start]))
		afterOK := end == len(text) || !isWordRune(firstRune(text[end:]))
		if beforeOK && afterOK {
			return true
		}
		offset = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	var last rune
	for _, r := range s {
		last = r
	}
	return last
}
