package site

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/hospital-site/internal/chat"
)

// ChatAction handles GET /chat/actions/{action}.
func (h *Handler) ChatAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.actions.Resolve(chi.URLParam(r, "action"))
	if errors.Is(err, chat.ErrUnknownAction) {
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to resolve chat action", "error", err)
		http.Error(w, "failed to resolve action", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, action)
}
