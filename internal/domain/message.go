package domain

type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindSystem    Kind = "system"
)

// Message is immutable once appended to a room log.
type Message struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Type      Kind   `json:"type"`
	Timestamp string `json:"timestamp"`
}
