package forms

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Cookies carrying the job or service picked on a listing page into the
// application and appointment forms.
const (
	SelectedJobCookie     = "selected_job"
	SelectedServiceCookie = "selected_service"
)

const selectionTTL = 24 * time.Hour

var selectionCookies = map[string]string{
	"job":      SelectedJobCookie,
	"jobs":     SelectedJobCookie,
	"service":  SelectedServiceCookie,
	"services": SelectedServiceCookie,
}

// Select handles POST /select/{kind}/{id}, remembering the choice for the
// next form.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	name, ok := selectionCookies[chi.URLParam(r, "kind")]
	if !ok {
		http.Error(w, "unknown selection", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(selectionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
