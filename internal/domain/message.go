// File: internal/domain/message.go
package domain

import "time"

// MessageSender identifies who produced a message.
type MessageSender string

const (
	SenderUser      MessageSender = "user"
	SenderAssistant MessageSender = "assistant"
)

// Message is a single entry within a chat. IsLoading is true only on an
// assistant placeholder whose reply has not arrived yet.
type Message struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Sender    MessageSender `json:"sender"`
	Timestamp time.Time     `json:"timestamp"`
	IsLoading bool          `json:"is_loading,omitempty"`
}

func (m *Message) IsAssistant() bool {
	return m.Sender == SenderAssistant
}
