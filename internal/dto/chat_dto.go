package dto

// ReplyKind selects the transport primitive a Reply maps onto.
type ReplyKind string

const (
	ReplyText     ReplyKind = "text"
	ReplyImage    ReplyKind = "image"
	ReplyDocument ReplyKind = "document"
)

// Reply is one transport-neutral render instruction produced by the
// conversation service. Text replies may carry a keyboard: the rows of
// valid next-input tokens for the state the user landed in.
type Reply struct {
	Kind     ReplyKind  `json:"kind"`
	Text     string     `json:"text,omitempty"`    // message body or media caption
	Path     string     `json:"path,omitempty"`    // backing file for image/document
	Keyboard [][]string `json:"keyboard,omitempty"`
}

type SendMessageRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type SendMessageResponse struct {
	Replies []Reply `json:"replies"`
}
