// File: internal/domain/chat.go
package domain

import (
	"strings"
	"time"
)

// MaxChatTitleRunes caps how much of the opening message becomes the title.
const MaxChatTitleRunes = 50

// Chat represents a single conversation thread, messages included. Chats are
// persisted whole, so there is no separate message table.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeriveChatTitle builds a title from the opening message: whitespace runs
// collapse to single spaces and the result is cut at MaxChatTitleRunes.
func DeriveChatTitle(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if collapsed == "" {
		return "New chat"
	}
	runes := []rune(collapsed)
	if len(runes) > MaxChatTitleRunes {
		return string(runes[:MaxChatTitleRunes])
	}
	return collapsed
}

// Touch bumps UpdatedAt after any mutation of the chat or its messages.
func (c *Chat) Touch(at time.Time) {
	c.UpdatedAt = at
}

// LastMessage returns the newest message, or nil for an empty chat.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
