package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/pkg/httputil"
)

// ChatHandler handles the FAQ chat widget.
type ChatHandler struct {
	chats  *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chats *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, logger: logger}
}

// SendMessageRequest is the JSON body of a visitor message.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// GetTranscript handles GET /api/v1/chat
func (h *ChatHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	cs := h.chats.Session(r.Context(), sessionIDFromContext(r.Context()))
	writeData(w, http.StatusOK, cs.Transcript())
}

// SendMessage handles POST /api/v1/chat/messages. Blank messages are
// accepted and ignored.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cs := h.chats.Session(r.Context(), sessionIDFromContext(r.Context()))
	status := http.StatusOK
	if cs.Submit(req.Text) {
		status = http.StatusAccepted
	}
	writeData(w, status, cs.Transcript())
}

// AskSuggestion handles POST /api/v1/chat/suggestions/{faqId}
func (h *ChatHandler) AskSuggestion(w http.ResponseWriter, r *http.Request) {
	faqID := chi.URLParam(r, "faqId")
	cs := h.chats.Session(r.Context(), sessionIDFromContext(r.Context()))
	if !cs.Ask(faqID) {
		httputil.WriteMessage(w, r, http.StatusNotFound, "NOT_FOUND", "faq with id "+faqID+" not found")
		return
	}
	writeData(w, http.StatusAccepted, cs.Transcript())
}

// Reset handles DELETE /api/v1/chat
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	cs := h.chats.Reset(r.Context(), sessionIDFromContext(r.Context()))
	writeData(w, http.StatusOK, cs.Transcript())
}
