package site

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/hospital-site/internal/catalog"
	"github.com/wolfman30/hospital-site/internal/cms"
)

// Page handles GET /{kind}?category=&q=&page=. With partial=list only the
// grid content is returned, for clients that replace the container.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.lookupKind(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	pages, err := strconv.Atoi(q.Get("page"))
	if err != nil || pages < 1 {
		pages = 1
	}

	ctrl := h.controller(kind)
	view, err := ctrl.Restore(r.Context(), catalog.State{Category: q.Get("category"), Search: q.Get("q")}, pages)
	if err != nil {
		h.logger.Warn("catalog restore incomplete", "kind", kind.Name, "error", err)
	}

	renderFn := h.renderer.Page
	if q.Get("partial") == "list" {
		renderFn = h.renderer.List
	}
	html, err := renderFn(view)
	if err != nil {
		h.logger.Error("failed to render catalog", "kind", kind.Name, "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// Detail handles GET /{kind}/{id}, the modal body for one item. Failures
// render the retry fragment so the modal never stays blank.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.lookupKind(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	html, status := h.detailHTML(r.Context(), kind, id, nil)
	writeHTML(w, status, html)
}

// detailHTML renders the modal body for id, preferring an already loaded
// copy of the item.
func (h *Handler) detailHTML(ctx context.Context, kind *catalog.Kind, id string, loaded *catalog.Controller) (string, int) {
	var (
		item catalog.Item
		err  error
	)
	found := false
	if loaded != nil {
		item, found = loaded.Find(id)
	}
	if !found {
		item, err = h.loadItem(ctx, kind, id)
	}

	status := http.StatusOK
	var html string
	if err == nil {
		html, err = h.renderer.Detail(item)
		if err != nil {
			h.logger.Error("failed to render detail", "kind", kind.Name, "id", id, "error", err)
			status = http.StatusInternalServerError
		}
	} else if errors.Is(err, cms.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		h.logger.Warn("failed to load detail", "kind", kind.Name, "id", id, "error", err)
		status = http.StatusBadGateway
	}
	if status != http.StatusOK {
		fallback, rerr := h.renderer.DetailError(kind.Name, id)
		if rerr != nil {
			h.logger.Error("failed to render detail error", "error", rerr)
		}
		html = fallback
	}
	return html, status
}

func (h *Handler) loadItem(ctx context.Context, kind *catalog.Kind, id string) (catalog.Item, error) {
	raw, err := h.cms.Get(ctx, kind.Resource, id)
	if err != nil {
		return catalog.Item{}, err
	}
	item := kind.NormalizeAt(raw, h.resolver, h.now(), h.logger)
	if !item.Active {
		return catalog.Item{}, cms.ErrNotFound
	}
	return item, nil
}

// ShareLink is what the share button hands to the Web Share API or copies
// to the clipboard.
type ShareLink struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Share handles GET /{kind}/{id}/share.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.lookupKind(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	item, err := h.loadItem(r.Context(), kind, id)
	switch {
	case errors.Is(err, cms.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Warn("failed to load shared item", "kind", kind.Name, "id", id, "error", err)
		http.Error(w, "content unavailable", http.StatusBadGateway)
		return
	}
	h.writeJSON(w, http.StatusOK, ShareLink{
		Title: item.Title,
		Text:  item.Summary,
		URL:   h.ShareURL(kind.Name, item),
	})
}

// ShareURL links to the item's card on its listing page.
func (h *Handler) ShareURL(kind string, item catalog.Item) string {
	return h.baseURL + "/" + kind + "#" + item.Anchor()
}

func (h *Handler) controller(kind *catalog.Kind) *catalog.Controller {
	return catalog.NewController(kind, h.cms, h.resolver, h.logger)
}
