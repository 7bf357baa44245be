// File: internal/services/chat/store.go
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/repository/kv"
	"github.com/kailassh/refine-chat/internal/services/reply"
	"github.com/kailassh/refine-chat/internal/transcript"
)

// Persistence keys. The whole conversation list is rewritten after every
// mutation so the stored snapshot never lags the in-memory state.
const (
	chatsStoreKey       = "refine.chats"
	currentChatStoreKey = "refine.current_chat"
)

// generationApology replaces an assistant placeholder when the reply
// provider fails. The user message stays in the chat so retrying is cheap.
const generationApology = "Sorry, I could not come up with a reply. Please try again."

// Store keeps every conversation in memory and mirrors each change into the
// key-value store. An empty current id means the next message starts a new
// chat.
type Store struct {
	store     kv.Store
	generator reply.Generator
	config    *Config
	logger    Logger

	mu       sync.Mutex
	chats    []domain.Chat
	current  string
	sending  bool
	lastErr  *ErrorView
	errorGen uint64
}

// NewStore creates a chat store. Nothing is read from persistence until
// Load is called.
func NewStore(store kv.Store, generator reply.Generator, config *Config, logger Logger) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, NewValidationError("new_store", "key-value store is required")
	}
	if generator == nil {
		return nil, NewValidationError("new_store", "reply generator is required")
	}
	if logger == nil {
		return nil, NewValidationError("new_store", "logger is required")
	}

	return &Store{
		store:     store,
		generator: generator,
		config:    config,
		logger:    logger,
	}, nil
}

// Load restores chats and the current selection from the key-value store.
// A missing or unreadable snapshot is not fatal, the store starts empty.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, chatsStoreKey)
	switch {
	case errors.Is(err, kv.ErrKeyNotFound):
	case err != nil:
		s.logger.Warn("could not read stored chats", "error", err)
	default:
		var chats []domain.Chat
		if err := json.Unmarshal([]byte(raw), &chats); err != nil {
			s.logger.Warn("stored chats are unreadable, starting empty", "error", err)
		} else {
			s.chats = chats
		}
	}

	current, err := s.store.Get(ctx, currentChatStoreKey)
	if err == nil && s.indexOfLocked(current) >= 0 {
		s.current = current
	}

	// A send interrupted by shutdown leaves its placeholder flagged as
	// loading. Resolve those so restored chats are never stuck spinning.
	swept := false
	for i := range s.chats {
		for j := range s.chats[i].Messages {
			if s.chats[i].Messages[j].IsLoading {
				s.chats[i].Messages[j].Content = generationApology
				s.chats[i].Messages[j].IsLoading = false
				swept = true
			}
		}
	}
	if swept {
		s.persistLocked(ctx)
	}

	s.logger.Info("chat store loaded", "chats", len(s.chats))
}

// List returns copies of all chats ordered by most recent activity first.
func (s *Store) List() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := make([]domain.Chat, len(s.chats))
	for i := range s.chats {
		chats[i] = cloneChat(&s.chats[i])
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats
}

// CurrentChatID returns the selected chat id, or "" when the next message
// starts a new chat.
func (s *Store) CurrentChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Current returns a copy of the selected chat.
func (s *Store) Current() (domain.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(s.current)
	if idx < 0 {
		return domain.Chat{}, false
	}
	return cloneChat(&s.chats[idx]), true
}

// Sending reports whether a reply is currently being generated.
func (s *Store) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// LastError returns the most recent surfaced error, or nil.
func (s *Store) LastError() *ErrorView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastErr == nil {
		return nil
	}
	view := *s.lastErr
	return &view
}

// CreateChat opens an empty chat titled after firstMessage and selects it.
func (s *Store) CreateChat(ctx context.Context, firstMessage string) domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.createChatLocked(firstMessage, time.Now())
	created := cloneChat(chat)
	s.persistLocked(ctx)
	return created
}

// SelectChat makes chatID the current conversation.
func (s *Store) SelectChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(chatID) < 0 {
		return NewNotFoundError("select_chat", chatID)
	}
	s.current = chatID
	s.persistLocked(ctx)
	return nil
}

// StartNewChat clears the selection so the next message opens a fresh chat.
func (s *Store) StartNewChat(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = ""
	s.persistLocked(ctx)
}

// SendMessage appends content as a user message, inserts an assistant
// placeholder, and resolves the placeholder with the generated reply. Only
// one send runs at a time. Empty input and sends while busy are ignored.
func (s *Store) SendMessage(ctx context.Context, content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}

	now := time.Now()

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		s.logger.Debug("send ignored, a reply is already in flight")
		return nil
	}
	s.sending = true

	var chat *domain.Chat
	if idx := s.indexOfLocked(s.current); idx >= 0 {
		chat = &s.chats[idx]
	} else {
		chat = s.createChatLocked(trimmed, now)
	}

	chat.Messages = append(chat.Messages, domain.Message{
		ID:        uuid.NewString(),
		Content:   trimmed,
		Sender:    domain.SenderUser,
		Timestamp: now,
	})
	placeholder := domain.Message{
		ID:        uuid.NewString(),
		Sender:    domain.SenderAssistant,
		Timestamp: now,
		IsLoading: true,
	}
	chat.Messages = append(chat.Messages, placeholder)
	chat.Touch(now)
	chatID := chat.ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	answer, genErr := s.generate(ctx, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false

	resolved := answer
	if genErr != nil {
		resolved = generationApology
	}
	// The chat may have been deleted or cleared while the reply was being
	// generated, in which case there is nothing left to resolve.
	if message, parent := s.findMessageLocked(chatID, placeholder.ID); message != nil {
		message.Content = resolved
		message.IsLoading = false
		parent.Touch(time.Now())
		s.persistLocked(ctx)
	}

	if genErr != nil {
		chatErr := NewGenerationError("send_message", genErr)
		s.failLocked(chatErr)
		s.logger.Error("reply generation failed", "chat_id", chatID, "error", genErr)
		return chatErr
	}

	s.logger.Info("reply delivered", "chat_id", chatID, "chars", len(resolved))
	return nil
}

// UpdateMessage applies a partial edit to a single message.
func (s *Store) UpdateMessage(ctx context.Context, chatID, messageID string, patch MessagePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, parent := s.findMessageLocked(chatID, messageID)
	if message == nil {
		return NewNotFoundError("update_message", "message "+messageID)
	}

	if patch.Content != nil {
		message.Content = *patch.Content
	}
	if patch.IsLoading != nil {
		message.IsLoading = *patch.IsLoading
	}
	parent.Touch(time.Now())
	s.persistLocked(ctx)
	return nil
}

// DeleteChat removes a chat. Deleting the selected chat clears the
// selection so the next message starts fresh.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(chatID)
	if idx < 0 {
		return NewNotFoundError("delete_chat", "chat "+chatID)
	}

	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	if s.current == chatID {
		s.current = ""
	}
	s.persistLocked(ctx)
	s.logger.Info("chat deleted", "chat_id", chatID)
	return nil
}

// ClearAll deletes every chat and the selection.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = nil
	s.current = ""
	s.clearErrorLocked()
	s.persistLocked(ctx)
	s.logger.Info("all chats cleared")
}

// ExportAll serializes every chat into a transcript envelope.
func (s *Store) ExportAll() ([]byte, error) {
	data, err := transcript.Encode(s.snapshot(), time.Now())
	if err != nil {
		return nil, NewPersistenceError("export_all", err)
	}
	return data, nil
}

// ExportHTML renders every chat as a standalone HTML page.
func (s *Store) ExportHTML() ([]byte, error) {
	page, err := transcript.RenderHTML(s.snapshot(), time.Now())
	if err != nil {
		return nil, NewPersistenceError("export_html", err)
	}
	return page, nil
}

// ImportAll merges chats from a transcript envelope and returns how many
// arrived. The payload is validated in full before anything changes, a
// malformed import leaves the store untouched.
func (s *Store) ImportAll(ctx context.Context, data []byte) (int, error) {
	imported, err := transcript.Decode(data)
	if err != nil {
		chatErr := NewImportError(err)
		s.mu.Lock()
		s.failLocked(chatErr)
		s.mu.Unlock()
		return 0, chatErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range imported {
		if idx := s.indexOfLocked(imported[i].ID); idx >= 0 {
			s.chats[idx] = imported[i]
		} else {
			s.chats = append(s.chats, imported[i])
		}
	}
	s.evictLocked()
	s.persistLocked(ctx)
	s.logger.Info("chats imported", "count", len(imported))
	return len(imported), nil
}

// Stats summarizes the stored conversations.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		TotalChats:    len(s.chats),
		CurrentChatID: s.current,
	}
	for i := range s.chats {
		chat := &s.chats[i]
		stats.TotalMessages += len(chat.Messages)
		for j := range chat.Messages {
			if chat.Messages[j].IsAssistant() {
				stats.AssistantMessages++
			} else {
				stats.UserMessages++
			}
		}
		if chat.UpdatedAt.After(stats.LastActivity) {
			stats.LastActivity = chat.UpdatedAt
		}
	}
	return stats
}

func (s *Store) createChatLocked(firstMessage string, now time.Time) *domain.Chat {
	chat := domain.Chat{
		ID:        uuid.NewString(),
		Title:     domain.DeriveChatTitle(firstMessage),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats = append(s.chats, chat)
	s.current = chat.ID
	s.evictLocked()
	s.logger.Info("chat created", "chat_id", chat.ID, "title", chat.Title)
	return &s.chats[s.indexOfLocked(chat.ID)]
}

// evictLocked drops the least recently updated chats once the cap is
// exceeded. The selected chat is never evicted.
func (s *Store) evictLocked() {
	for len(s.chats) > s.config.MaxChats {
		oldest := -1
		for i := range s.chats {
			if s.chats[i].ID == s.current {
				continue
			}
			if oldest < 0 || s.chats[i].UpdatedAt.Before(s.chats[oldest].UpdatedAt) {
				oldest = i
			}
		}
		if oldest < 0 {
			return
		}
		evicted := s.chats[oldest]
		s.chats = append(s.chats[:oldest], s.chats[oldest+1:]...)
		s.logger.Info("chat evicted", "chat_id", evicted.ID, "title", evicted.Title)
	}
}

func (s *Store) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.GenerateTimeout)
	defer cancel()
	return s.generator.Generate(callCtx, prompt)
}

// persistLocked rewrites the full snapshot and the selection pointer.
// Persistence failures are logged but never fail the operation, the
// in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.chats)
	if err != nil {
		s.logger.Error("could not serialize chats", "error", err)
		return
	}
	if err := s.store.Set(ctx, chatsStoreKey, string(data)); err != nil {
		s.logger.Warn("could not persist chats", "error", err)
	}

	if s.current == "" {
		if err := s.store.Delete(ctx, currentChatStoreKey); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
			s.logger.Warn("could not clear current chat key", "error", err)
		}
		return
	}
	if err := s.store.Set(ctx, currentChatStoreKey, s.current); err != nil {
		s.logger.Warn("could not persist current chat", "error", err)
	}
}

func (s *Store) failLocked(err *ChatError) {
	s.lastErr = &ErrorView{Message: err.Message, Code: string(err.Type)}
	s.errorGen++
	gen := s.errorGen
	clearAfter := s.config.ErrorAutoClear

	go func() {
		time.Sleep(clearAfter)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.errorGen == gen {
			s.lastErr = nil
		}
	}()
}

func (s *Store) clearErrorLocked() {
	s.lastErr = nil
	s.errorGen++
}

func (s *Store) snapshot() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := make([]domain.Chat, len(s.chats))
	for i := range s.chats {
		chats[i] = cloneChat(&s.chats[i])
	}
	return chats
}

func (s *Store) indexOfLocked(chatID string) int {
	if chatID == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			return i
		}
	}
	return -1
}

func (s *Store) findMessageLocked(chatID, messageID string) (*domain.Message, *domain.Chat) {
	idx := s.indexOfLocked(chatID)
	if idx < 0 {
		return nil, nil
	}
	chat := &s.chats[idx]
	for i := range chat.Messages {
		if chat.Messages[i].ID == messageID {
			return &chat.Messages[i], chat
		}
	}
	return nil, nil
}

func cloneChat(chat *domain.Chat) domain.Chat {
	copied := *chat
	copied.Messages = make([]domain.Message, len(chat.Messages))
	copy(copied.Messages, chat.Messages)
	return copied
}
