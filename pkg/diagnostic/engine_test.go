package diagnostic

import (
	"strings"
	"testing"

	"kb-assistant-be/pkg/store"
)

func testKB() *KnowledgeBase {
	return New([]Topic{
		{
			ID:       "документ_подписание",
			Keywords: []string{"документ", "подписание", "не приходит"},
			Questions: []Question{
				{Text: "Вопрос 1?", Yes: "Ответ да 1.", No: "Ответ нет 1."},
				{Text: "Вопрос 2?", Yes: "Ответ да 2.", No: ""},
				{Text: "Вопрос 3?", Yes: "Ответ да 3.", No: "Ответ нет 3."},
			},
			Related: &RelatedAction{
				Topic:     "ОЦО ЦБ",
				Subtopic:  "не_поступила_задача_на_подписание_молу",
				Condition: ConditionAllYes,
			},
		},
		{
			ID:       "печать",
			Keywords: []string{"печать", "принтер"},
			Questions: []Question{
				{Text: "Принтер включен?", Yes: "Проверьте драйвер.", No: "Включите принтер."},
			},
		},
	})
}

func TestMatchTopic(t *testing.T) {
	engine := NewEngine(testKB())

	tests := []struct {
		name    string
		text    string
		wantID  string
		matched bool
	}{
		{"keyword hit", "Не приходит документ на подписание", "документ_подписание", true},
		{"case insensitive", "ДОКУМЕНТ потерялся", "документ_подписание", true},
		{"phrase keyword", "у меня не приходит задача", "документ_подписание", true},
		{"second topic", "сломался принтер", "печать", true},
		{"first declared wins on tie", "документ ушел на печать", "документ_подписание", true},
		{"substring is not a word", "документооборот сломался", "", false},
		{"no match", "ничего не работает", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, ok := engine.MatchTopic(tt.text)
			if ok != tt.matched {
				t.Fatalf("MatchTopic(%q) matched = %v, want %v", tt.text, ok, tt.matched)
			}
			if ok && topic.ID != tt.wantID {
				t.Errorf("MatchTopic(%q) = %s, want %s", tt.text, topic.ID, tt.wantID)
			}
		})
	}
}

func TestBeginAsksFirstQuestion(t *testing.T) {
	engine := NewEngine(testKB())
	topic, _ := engine.MatchTopic("Не приходит документ на подписание")

	progress := &store.DiagnosticProgress{}
	outcome := engine.Begin(topic, progress)

	if outcome.Kind != OutcomeQuestion {
		t.Fatalf("Kind = %v, want OutcomeQuestion", outcome.Kind)
	}
	if outcome.Question != "Вопрос 1?" {
		t.Errorf("Question = %q, want %q", outcome.Question, "Вопрос 1?")
	}
	if progress.TopicID != "документ_подписание" || progress.Question != 0 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestAdvanceAllYes(t *testing.T) {
	engine := NewEngine(testKB())
	topic, _ := engine.MatchTopic("документ")
	progress := &store.DiagnosticProgress{}
	engine.Begin(topic, progress)

	if out := engine.Advance(progress, "да"); out.Kind != OutcomeQuestion || out.Question != "Вопрос 2?" {
		t.Fatalf("after first answer: %+v", out)
	}
	if out := engine.Advance(progress, "Да"); out.Kind != OutcomeQuestion || out.Question != "Вопрос 3?" {
		t.Fatalf("after second answer: %+v", out)
	}

	out := engine.Advance(progress, "ДА")
	if out.Kind != OutcomeFinal {
		t.Fatalf("Kind = %v, want OutcomeFinal", out.Kind)
	}
	want := "Ответ да 1.\n\nОтвет да 2.\n\nОтвет да 3."
	if out.Final != want {
		t.Errorf("Final = %q, want %q", out.Final, want)
	}
	if out.Recommend == nil {
		t.Fatal("Recommend = nil, want related subtopic")
	}
	if out.Recommend.Subtopic != "не_поступила_задача_на_подписание_молу" {
		t.Errorf("Recommend.Subtopic = %q", out.Recommend.Subtopic)
	}
}

func TestAdvanceMixedAnswersSkipsEmptyFragmentAndRecommendation(t *testing.T) {
	engine := NewEngine(testKB())
	topic, _ := engine.MatchTopic("документ")
	progress := &store.DiagnosticProgress{}
	engine.Begin(topic, progress)

	engine.Advance(progress, "нет")
	engine.Advance(progress, "нет") // empty fragment for "нет" on question 2
	out := engine.Advance(progress, "да")

	if out.Kind != OutcomeFinal {
		t.Fatalf("Kind = %v, want OutcomeFinal", out.Kind)
	}
	want := "Ответ нет 1.\n\nОтвет да 3."
	if out.Final != want {
		t.Errorf("Final = %q, want %q", out.Final, want)
	}
	if out.Recommend != nil {
		t.Errorf("Recommend = %+v, want nil (condition requires all yes)", out.Recommend)
	}
}

func TestAdvanceRejectsNonYesNo(t *testing.T) {
	engine := NewEngine(testKB())
	topic, _ := engine.MatchTopic("документ")
	progress := &store.DiagnosticProgress{}
	engine.Begin(topic, progress)
	engine.Advance(progress, "да")

	out := engine.Advance(progress, "может быть")
	if out.Kind != OutcomeReprompt {
		t.Fatalf("Kind = %v, want OutcomeReprompt", out.Kind)
	}
	if out.Question != "Вопрос 2?" {
		t.Errorf("Question = %q, want the current question repeated", out.Question)
	}
	if progress.Question != 1 {
		t.Errorf("Question index advanced to %d on invalid answer", progress.Question)
	}
	if _, recorded := progress.Answers[1]; recorded {
		t.Error("invalid answer was recorded")
	}
}

func TestAdvancePastQuestionTableFinishes(t *testing.T) {
	engine := NewEngine(testKB())

	// A persisted session can carry an index from a longer question table
	// than the one currently loaded.
	progress := &store.DiagnosticProgress{
		TopicID:  "документ_подписание",
		Question: 7,
		Answers:  map[int]string{0: "да", 1: "да", 2: "да"},
	}

	out := engine.Advance(progress, "да")
	if out.Kind != OutcomeFinal {
		t.Fatalf("Kind = %v, want OutcomeFinal", out.Kind)
	}
	want := "Ответ да 1.\n\nОтвет да 2.\n\nОтвет да 3."
	if out.Final != want {
		t.Errorf("Final = %q, want %q", out.Final, want)
	}
}

func TestZeroQuestionTopic(t *testing.T) {
	kb := New([]Topic{
		{
			ID:       "пустой",
			Keywords: []string{"пусто"},
			Related: &RelatedAction{
				Topic:     "Раздел",
				Subtopic:  "подраздел",
				Condition: ConditionAllYes,
			},
		},
	})
	engine := NewEngine(kb)
	topic, _ := engine.MatchTopic("пусто")

	progress := &store.DiagnosticProgress{}
	out := engine.Begin(topic, progress)

	if out.Kind != OutcomeFinal {
		t.Fatalf("Kind = %v, want OutcomeFinal", out.Kind)
	}
	if out.Final != "" {
		t.Errorf("Final = %q, want empty", out.Final)
	}
	// all_yes over an empty answer set holds vacuously.
	if out.Recommend == nil {
		t.Error("Recommend = nil, want vacuous all_yes recommendation")
	}
}

func TestFragmentsKeepQuestionOrder(t *testing.T) {
	engine := NewEngine(testKB())
	topic, _ := engine.MatchTopic("документ")
	progress := &store.DiagnosticProgress{}
	engine.Begin(topic, progress)

	engine.Advance(progress, "да")
	engine.Advance(progress, "да")
	out := engine.Advance(progress, "да")

	first := strings.Index(out.Final, "Ответ да 1.")
	second := strings.Index(out.Final, "Ответ да 2.")
	third := strings.Index(out.Final, "Ответ да 3.")
	if !(first < second && second < third) {
		t.Errorf("fragments out of order: %q", out.Final)
	}
}

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		text   string
		phrase string
		want   bool
	}{
		{"не приходит документ", "документ", true},
		{"документооборот", "документ", false},
		{"документ.", "документ", true},
		{"(документ)", "документ", true},
		{"a документ b", "документ", true},
		{"не приходит документ", "не приходит", true},
		{"неприходит", "не приходит", false},
		{"", "документ", false},
		{"документ", "", false},
	}

	for _, tt := range tests {
		if got := containsWholeWord(tt.text, tt.phrase); got != tt.want {
			t.Errorf("containsWholeWord(%q, %q) = %v, want %v", tt.text, tt.phrase, got, tt.want)
		}
	}
}
