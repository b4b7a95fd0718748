package forms

import (
	"net/http"
	"time"

	"github.com/wolfman30/hospital-site/internal/notify"
)

// Contact handles POST /contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	const form = "contact"
	var req ContactRequest
	err := decode(r, &req, func(get func(string) string) {
		req = ContactRequest{
			Name:    get("name"),
			Email:   get("email"),
			Phone:   get("phone"),
			Subject: get("subject"),
			Message: get("message"),
		}
	})
	if err != nil {
		h.logger.Error("failed to decode request", "form", form, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(w, form, err, req)
		return
	}

	ctx := r.Context()
	if _, err := h.cms.Submit(ctx, ContactCollection, map[string]any{
		"name":      req.Name,
		"email":     req.Email,
		"phone":     req.Phone,
		"subject":   req.Subject,
		"message":   req.Message,
		"createdAt": h.now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.logger.Error("failed to submit contact form", "error", err)
		h.fail(w, form, "Sorry, there was an error sending your message. Please try again.", req)
		return
	}
	if err := h.notifier.Contact(ctx, notify.ContactNotice{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}); err != nil {
		h.logger.Warn("failed to send contact notification", "error", err)
	}

	h.succeed(w, form, "", "Thank you! Your message has been sent successfully.")
}

// Subscribe handles POST /newsletter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const form = "newsletter"
	var req NewsletterRequest
	err := decode(r, &req, func(get func(string) string) {
		req = NewsletterRequest{Email: get("email")}
	})
	if err != nil {
		h.logger.Error("failed to decode request", "form", form, "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		h.reject(w, form, err, req)
		return
	}

	if _, err := h.cms.Submit(r.Context(), NewsletterCollection, map[string]any{
		"email":        req.Email,
		"subscribedAt": h.now().UTC().Format(time.RFC3339),
		"active":       true,
	}); err != nil {
		h.logger.Error("failed to subscribe", "error", err)
		h.fail(w, form, "Sorry, there was an error. Please try again.", req)
		return
	}
	h.succeed(w, form, "", "Thank you for subscribing to our newsletter!")
}
