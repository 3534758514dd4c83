package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/quecomemoshoy/internal/service"
)

// SessionHandler ends a browsing session.
type SessionHandler struct {
	carts  *service.CartService
	chats  *service.ChatService
	logger *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(carts *service.CartService, chats *service.ChatService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{carts: carts, chats: chats, logger: logger}
}

// EndSession handles DELETE /api/v1/session. It drops the stored cart and
// any in-memory cart and chat state for the session.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sid := sessionIDFromContext(r.Context())
	if err := h.carts.Discard(r.Context(), sid); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.chats.Evict(sid)
	w.WriteHeader(http.StatusNoContent)
}
