// File: internal/handlers/chat_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kailassh/refine-chat/internal/domain"
	"github.com/kailassh/refine-chat/internal/metrics"
	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/chat"
)

const maxImportBody = 10 << 20

// ChatHandler exposes the conversation store over JSON.
type ChatHandler struct {
	Store   *chat.Store
	Metrics metrics.Recorder
	Logger  services.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(store *chat.Store, recorder metrics.Recorder, logger services.Logger) *ChatHandler {
	return &ChatHandler{
		Store:   store,
		Metrics: recorder,
		Logger:  logger,
	}
}

// ListChats returns every chat, most recently active first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.List())
}

// CreateChat opens an empty chat titled after the optional first message.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstMessage string `json:"first_message"`
	}
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created := h.Store.CreateChat(r.Context(), req.FirstMessage)
	writeJSON(w, http.StatusCreated, created)
}

// CurrentChat returns the selected chat, or a null chat when the next
// message starts a new one.
func (h *ChatHandler) CurrentChat(w http.ResponseWriter, r *http.Request) {
	var resp struct {
		Chat *domain.Chat `json:"chat"`
	}
	if current, ok := h.Store.Current(); ok {
		resp.Chat = &current
	}
	writeJSON(w, http.StatusOK, resp)
}

// SelectChat makes the chat in the body the current conversation.
func (h *ChatHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chat_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Store.SelectChat(r.Context(), req.ChatID); err != nil {
		h.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"current_chat_id": req.ChatID})
}

// Deselect clears the selection so the next message opens a fresh chat.
func (h *ChatHandler) Deselect(w http.ResponseWriter, r *http.Request) {
	h.Store.StartNewChat(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage runs one user message through the store and returns the
// conversation it landed in.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	before := h.Store.Stats().TotalMessages

	if err := h.Store.SendMessage(r.Context(), req.Content); err != nil {
		h.Metrics.RecordReplyFailure()
		h.writeChatError(w, err)
		return
	}
	if h.Store.Stats().TotalMessages > before {
		h.Metrics.RecordReply(time.Since(start))
	}

	var resp struct {
		Chat *domain.Chat `json:"chat"`
	}
	if current, ok := h.Store.Current(); ok {
		resp.Chat = &current
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateMessage applies a partial edit to one message.
func (h *ChatHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Content   *string `json:"content"`
		IsLoading *bool   `json:"is_loading"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patch := chat.MessagePatch{Content: req.Content, IsLoading: req.IsLoading}
	if err := h.Store.UpdateMessage(r.Context(), vars["id"], vars["messageId"], patch); err != nil {
		h.writeChatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChat removes one chat.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Store.DeleteChat(r.Context(), vars["id"]); err != nil {
		h.writeChatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAll removes every chat.
func (h *ChatHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.Store.ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Export streams all chats as a downloadable transcript file.
func (h *ChatHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.Store.ExportAll()
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="refine-chats.json"`)
	w.Write(data)
}

// ExportHTML renders all chats as a browsable HTML page.
func (h *ChatHandler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	page, err := h.Store.ExportHTML()
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Import merges a previously exported transcript into the store.
func (h *ChatHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		writeError(w, "Could not read import payload", http.StatusBadRequest)
		return
	}

	count, err := h.Store.ImportAll(r.Context(), data)
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

// Stats summarizes the stored conversations.
func (h *ChatHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Stats())
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong."
	code := ""

	var chatErr *chat.ChatError
	if errors.As(err, &chatErr) {
		code = string(chatErr.Type)
		message = chatErr.Message
		switch chatErr.Type {
		case chat.ErrTypeNotFound:
			status = http.StatusNotFound
		case chat.ErrTypeValidation, chat.ErrTypeImport:
			status = http.StatusBadRequest
		case chat.ErrTypeGeneration:
			status = http.StatusBadGateway
		}
	}

	h.Logger.Warn("chat request failed", "code", code, "error", err)
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
