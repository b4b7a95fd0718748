// Package site serves the public hospital pages: catalog listings with
// filters and detail modals, the home and about pages, the live catalog
// socket and the chat widget actions.
package site

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/hospital-site/internal/catalog"
	"github.com/wolfman30/hospital-site/internal/chat"
	"github.com/wolfman30/hospital-site/internal/cms"
	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// Content is the read side of the CMS client.
type Content interface {
	catalog.Fetcher
	Get(ctx context.Context, resource, id string) (cms.RawItem, error)
	Single(ctx context.Context, resource string) (map[string]any, error)
}

// Deps are the collaborators of Handler. CMS and Renderer are required.
type Deps struct {
	CMS           Content
	Resolver      *cms.Resolver
	Renderer      *render.Renderer
	Actions       *chat.Resolver
	Metrics       *metrics.SiteMetrics
	PublicBaseURL string
	Debounce      time.Duration
	Logger        *logging.Logger
}

// Handler serves the public site.
type Handler struct {
	cms      Content
	resolver *cms.Resolver
	renderer *render.Renderer
	actions  *chat.Resolver
	metrics  *metrics.SiteMetrics
	baseURL  string
	debounce time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a site handler.
func NewHandler(d Deps) *Handler {
	if d.CMS == nil {
		panic("site: CMS content source is required")
	}
	if d.Renderer == nil {
		panic("site: renderer is required")
	}
	if d.Resolver == nil {
		d.Resolver = cms.NewResolver("")
	}
	if d.Actions == nil {
		d.Actions = chat.NewResolver(chat.Config{})
	}
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	return &Handler{
		cms:      d.CMS,
		resolver: d.Resolver,
		renderer: d.Renderer,
		actions:  d.Actions,
		metrics:  d.Metrics,
		baseURL:  strings.TrimRight(d.PublicBaseURL, "/"),
		debounce: d.Debounce,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// Routes mounts the site endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/home", h.Home)
	r.Get("/about", h.About)
	r.Get("/chat/actions/{action}", h.ChatAction)
	r.Get("/live/{kind}", h.Live)
	r.Get("/{kind}", h.Page)
	r.Get("/{kind}/{id}", h.Detail)
	r.Get("/{kind}/{id}/share", h.Share)
}

func (h *Handler) lookupKind(w http.ResponseWriter, r *http.Request) (*catalog.Kind, bool) {
	kind, ok := catalog.Lookup(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
	}
	return kind, ok
}

func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
