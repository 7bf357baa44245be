// File: internal/transcript/transcript_test.go
package transcript

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailassh/refine-chat/internal/domain"
)

func sampleChats() []domain.Chat {
	at := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	return []domain.Chat{
		{
			ID:    "chat-1",
			Title: "Slice questions",
			Messages: []domain.Message{
				{ID: "m-1", Content: "How do I copy a slice?", Sender: domain.SenderUser, Timestamp: at},
				{ID: "m-2", Content: "Use `copy(dst, src)` after allocating dst.", Sender: domain.SenderAssistant, Timestamp: at.Add(time.Second)},
			},
			CreatedAt: at,
			UpdatedAt: at.Add(time.Second),
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	chats := sampleChats()

	data, err := Encode(chats, time.Now())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d chats, want 1", len(decoded))
	}
	if decoded[0].ID != "chat-1" || decoded[0].Title != "Slice questions" {
		t.Errorf("decoded chat = %+v", decoded[0])
	}
	if len(decoded[0].Messages) != 2 {
		t.Fatalf("decoded %d messages, want 2", len(decoded[0].Messages))
	}
	if decoded[0].Messages[1].Sender != domain.SenderAssistant {
		t.Errorf("second sender = %q, want assistant", decoded[0].Messages[1].Sender)
	}
}

func TestEncodeEmptySnapshot(t *testing.T) {
	data, err := Encode(nil, time.Now())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"chats": []`) {
		t.Errorf("empty export should carry an empty array, got %s", data)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("decoded %d chats, want 0", len(decoded))
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"not json", "certainly not json"},
		{"wrong version", `{"version": 99, "chats": []}`},
		{"missing chat id", `{"version": 1, "chats": [{"title": "x", "messages": []}]}`},
		{"missing message id", `{"version": 1, "chats": [{"id": "c", "messages": [{"content": "hi", "sender": "user"}]}]}`},
		{"unknown sender", `{"version": 1, "chats": [{"id": "c", "messages": [{"id": "m", "content": "hi", "sender": "robot"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.payload)); !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Decode(%q) error = %v, want ErrInvalidFormat", tt.payload, err)
			}
		})
	}
}

func TestDecodeFillsMissingTitle(t *testing.T) {
	decoded, err := Decode([]byte(`{"version": 1, "chats": [{"id": "c", "messages": []}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded[0].Title == "" {
		t.Error("Decode should backfill an empty title")
	}
}

func TestRenderHTML(t *testing.T) {
	chats := sampleChats()
	chats[0].Messages = append(chats[0].Messages, domain.Message{
		ID:        "m-3",
		Sender:    domain.SenderAssistant,
		Timestamp: time.Now(),
		IsLoading: true,
	})
	chats[0].Title = "Tags <script>"

	page, err := RenderHTML(chats, time.Now())
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	got := string(page)

	if !strings.Contains(got, "Tags &lt;script&gt;") {
		t.Error("title should be escaped")
	}
	if strings.Contains(got, "<script>") {
		t.Error("raw title markup must not reach the page")
	}
	if !strings.Contains(got, "<code>") {
		t.Error("markdown code span should be rendered")
	}
	if !strings.Contains(got, "reply pending") {
		t.Error("loading placeholder should render as pending")
	}
}
