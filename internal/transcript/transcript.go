// File: internal/transcript/transcript.go
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailassh/refine-chat/internal/domain"
)

// FormatVersion is the current transcript envelope version. Decode rejects
// payloads written with a different version so partial imports never happen.
const FormatVersion = 1

// ErrInvalidFormat reports a payload that is not a well-formed transcript
// envelope. Callers match it with errors.Is.
var ErrInvalidFormat = errors.New("invalid transcript format")

// Snapshot is the portable export envelope for a set of chats.
type Snapshot struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exported_at"`
	Chats      []domain.Chat `json:"chats"`
}

// Encode serializes chats into a versioned transcript envelope.
func Encode(chats []domain.Chat, exportedAt time.Time) ([]byte, error) {
	snapshot := Snapshot{
		Version:    FormatVersion,
		ExportedAt: exportedAt.UTC(),
		Chats:      chats,
	}
	if snapshot.Chats == nil {
		snapshot.Chats = []domain.Chat{}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}
	return data, nil
}

// Decode parses and validates a transcript envelope. It returns the contained
// chats only when the whole payload is usable, so importers can treat any
// error as "nothing changed".
func Decode(data []byte) ([]domain.Chat, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidFormat)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if snapshot.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, snapshot.Version)
	}

	for i := range snapshot.Chats {
		if err := validateChat(&snapshot.Chats[i], i); err != nil {
			return nil, err
		}
	}

	if snapshot.Chats == nil {
		return []domain.Chat{}, nil
	}
	return snapshot.Chats, nil
}

func validateChat(chat *domain.Chat, index int) error {
	if chat.ID == "" {
		return fmt.Errorf("%w: chat %d has no id", ErrInvalidFormat, index)
	}
	if chat.Title == "" {
		chat.Title = domain.DeriveChatTitle("")
	}
	for j := range chat.Messages {
		message := &chat.Messages[j]
		if message.ID == "" {
			return fmt.Errorf("%w: chat %d message %d has no id", ErrInvalidFormat, index, j)
		}
		switch message.Sender {
		case domain.SenderUser, domain.SenderAssistant:
		default:
			return fmt.Errorf("%w: chat %d message %d has unknown sender %q", ErrInvalidFormat, index, j, message.Sender)
		}
	}
	return nil
}
