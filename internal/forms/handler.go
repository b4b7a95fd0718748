package forms

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/hospital-site/internal/appointments"
	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/internal/notify"
	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/internal/uploads"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// CMS collections that receive form submissions.
const (
	ContactCollection            = "contact-submissions"
	NewsletterCollection         = "newsletter-subscriptions"
	ApplicationCollection        = "applications"
	GeneralApplicationCollection = "general-applications"
	AppointmentCollection        = "appointments"
)

const maxRequestBytes = 4 * MaxCVBytes

// ContentStore is the part of the CMS client the form handlers use.
type ContentStore interface {
	Get(ctx context.Context, resource, id string) (cms.RawItem, error)
	Submit(ctx context.Context, resource string, payload any) (cms.RawItem, error)
}

// Deps are the collaborators of Handler. Only CMS, Renderer and
// Appointments are required.
type Deps struct {
	CMS          ContentStore
	Appointments appointments.Repository
	Uploads      uploads.Store
	Notifier     *notify.Notifier
	Renderer     *render.Renderer
	Metrics      *metrics.SiteMetrics
	HREmail      string
	Logger       *logging.Logger
}

// Handler handles form submissions.
type Handler struct {
	cms      ContentStore
	repo     appointments.Repository
	uploads  uploads.Store
	notifier *notify.Notifier
	renderer *render.Renderer
	metrics  *metrics.SiteMetrics
	hrEmail  string
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a new forms handler.
func NewHandler(d Deps) *Handler {
	if d.CMS == nil {
		panic("forms: CMS store is required")
	}
	if d.Renderer == nil {
		panic("forms: renderer is required")
	}
	if d.Appointments == nil {
		panic("forms: appointment repository is required")
	}
	if d.Uploads == nil {
		d.Uploads = uploads.NewMemoryStore()
	}
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	return &Handler{
		cms:      d.CMS,
		repo:     d.Appointments,
		uploads:  d.Uploads,
		notifier: d.Notifier,
		renderer: d.Renderer,
		metrics:  d.Metrics,
		hrEmail:  d.HREmail,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// Routes mounts the form endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/appointment", h.BookAppointment)
	r.Get("/appointment/options", h.AppointmentOptions)
	r.Post("/contact", h.Contact)
	r.Post("/newsletter", h.Subscribe)
	r.Post("/careers/apply", h.ApplyForJob)
	r.Post("/careers/general", h.ApplyGeneral)
	r.Post("/select/{kind}/{id}", h.Select)
}

// Response is the JSON body of every form submission. Values echo the
// submitted fields so the client can keep the form populated after a failure.
type Response struct {
	Reference    string      `json:"reference,omitempty"`
	Errors       FieldErrors `json:"errors,omitempty"`
	Values       any         `json:"values,omitempty"`
	Notification string      `json:"notification"`
}

func (h *Handler) succeed(w http.ResponseWriter, form, reference, message string) {
	h.metrics.ObserveSubmission(form, "success")
	h.respond(w, http.StatusCreated, Response{
		Reference:    reference,
		Notification: h.notification(render.NotifySuccess, message),
	})
}

func (h *Handler) reject(w http.ResponseWriter, form string, err error, values any) {
	var fields FieldErrors
	if !errors.As(err, &fields) {
		fields = FieldErrors{"form": err.Error()}
	}
	h.metrics.ObserveSubmission(form, "invalid")
	h.respond(w, http.StatusUnprocessableEntity, Response{
		Errors:       fields,
		Values:       values,
		Notification: h.notification(render.NotifyError, "Please fill in all required fields correctly."),
	})
}

func (h *Handler) fail(w http.ResponseWriter, form, message string, values any) {
	h.metrics.ObserveSubmission(form, "failed")
	h.respond(w, http.StatusBadGateway, Response{
		Values:       values,
		Notification: h.notification(render.NotifyError, message),
	})
}

func (h *Handler) notification(kind, message string) string {
	html, err := h.renderer.Notification(kind, message)
	if err != nil {
		h.logger.Error("failed to render notification", "error", err)
		return ""
	}
	return html
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// decode fills dst from a JSON body, or from url-encoded form values via
// fromValues for classic form posts.
func decode(r *http.Request, dst any, fromValues func(get func(string) string)) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	fromValues(func(k string) string { return trim(r.PostForm.Get(k)) })
	return nil
}
