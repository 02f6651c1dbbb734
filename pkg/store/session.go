package store

// State is the conversation state of one user's dialog.
type State string

const (
	StateSelectingAction     State = "SELECTING_ACTION"
	StateSelectingTopic      State = "SELECTING_TOPIC"
	StateSelectingSubtopic   State = "SELECTING_SUBTOPIC"
	StateAddingTopic         State = "ADDING_TOPIC"
	StateAddingSubtopic      State = "ADDING_SUBTOPIC"
	StateTypingTitle         State = "TYPING_TITLE"
	StateTypingContent       State = "TYPING_CONTENT"
	StateUploadingImage      State = "UPLOADING_IMAGE"
	StateUploadingFile       State = "UPLOADING_FILE"
	StateTypingCaption       State = "TYPING_CAPTION"
	StateEditingMaterial     State = "EDITING_MATERIAL"
	StateDeletingMaterial    State = "DELETING_MATERIAL"
	StateShowingInstructions State = "SHOWING_INSTRUCTIONS"
	StateDiagnosticMode      State = "DIAGNOSTIC_MODE"
)

// Action is the pending management action driving topic/subtopic selection.
type Action string

const (
	ActionNone        Action = ""
	ActionAddText     Action = "add_text"
	ActionAddImage    Action = "add_image"
	ActionUploadFile  Action = "upload_file"
	ActionAddTopic    Action = "add_topic"
	ActionAddSubtopic Action = "add_subtopic"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
)

// EditContext pins the material being edited while the user sits in
// TYPING_CAPTION after picking a material id.
type EditContext struct {
	MaterialID string `json:"material_id"`
	Kind       string `json:"kind"` // "image" | "file"
	TopicKey   string `json:"topic_key"`
}

// MaterialFlow holds everything a management flow accumulates between
// messages. It is created when a management action is chosen and dropped
// when the flow completes or is cancelled.
type MaterialFlow struct {
	Action   Action `json:"action"`
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`

	// Text-material flow: first message is the title, second the body.
	Title string `json:"title,omitempty"`

	// Upload flow: stored file awaiting its caption.
	UploadPath string `json:"upload_path,omitempty"`
	UploadKind string `json:"upload_kind,omitempty"`

	Edit *EditContext `json:"edit,omitempty"`
}

// TopicKey is the "Topic/Subtopic" materials-index key for this flow.
func (f *MaterialFlow) TopicKey() string {
	return f.Topic + "/" + f.Subtopic
}

// DiagnosticProgress tracks a running diagnostic dialog.
type DiagnosticProgress struct {
	TopicID  string         `json:"topic_id"`
	Question int            `json:"question"`
	Answers  map[int]string `json:"answers"` // question index -> "да" | "нет"
}

// Instruction references the subtopic queued for display after a
// diagnostic concludes with a recommendation.
type Instruction struct {
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
}

// Session is the per-user mutable conversation context.
type Session struct {
	UserID string `json:"user_id"`
	State  State  `json:"state"`

	// Topic selected while browsing (SELECTING_SUBTOPIC).
	Topic string `json:"topic,omitempty"`

	Flow        *MaterialFlow       `json:"flow,omitempty"`
	Diagnostic  *DiagnosticProgress `json:"diagnostic,omitempty"`
	Instruction *Instruction        `json:"instruction,omitempty"`
}

// NewSession returns a fresh session in the initial state.
func NewSession(userID string) *Session {
	return &Session{
		UserID: userID,
		State:  StateSelectingAction,
	}
}

// Reset returns the session to the main menu and drops all flow context.
func (s *Session) Reset() {
	s.State = StateSelectingAction
	s.Topic = ""
	s.Flow = nil
	s.Diagnostic = nil
	s.Instruction = nil
}
