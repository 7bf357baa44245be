// File: internal/handlers/log_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/kailassh/refine-chat/internal/services"
)

// ClientLogPayload defines the structure for logs coming from the browser.
type ClientLogPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

// LogHandler sinks browser-side log lines into the server log.
type LogHandler struct {
	Logger services.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(logger services.Logger) *LogHandler {
	return &LogHandler{Logger: logger}
}

// LogClientEvent handles incoming log requests from the frontend.
func (h *LogHandler) LogClientEvent(w http.ResponseWriter, r *http.Request) {
	var payload ClientLogPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch strings.ToLower(payload.Level) {
	case "error":
		h.Logger.Error("client log", "message", payload.Message, "context", payload.Context)
	case "warn":
		h.Logger.Warn("client log", "message", payload.Message, "context", payload.Context)
	default:
		h.Logger.Info("client log", "message", payload.Message, "context", payload.Context)
	}

	w.WriteHeader(http.StatusNoContent)
}
