// File: internal/services/chat/types.go
package chat

import "time"

// Logger captures the logging interface the chat store needs.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
}

// ErrorView is the user facing form of the most recent store failure. It
// clears itself shortly after being set.
type ErrorView struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// MessagePatch is a partial message edit. Nil fields keep their value.
type MessagePatch struct {
	Content   *string
	IsLoading *bool
}

// Stats summarizes the stored conversations.
type Stats struct {
	TotalChats        int       `json:"total_chats"`
	TotalMessages     int       `json:"total_messages"`
	UserMessages      int       `json:"user_messages"`
	AssistantMessages int       `json:"assistant_messages"`
	CurrentChatID     string    `json:"current_chat_id,omitempty"`
	LastActivity      time.Time `json:"last_activity"`
}
