package site

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wolfman30/hospital-site/internal/catalog"
	"github.com/wolfman30/hospital-site/internal/observability/metrics"
	"github.com/wolfman30/hospital-site/internal/render"
	"github.com/wolfman30/hospital-site/pkg/logging"
)

// Client event types.
const (
	EventCategory = "category"
	EventSearch   = "search"
	EventLoadMore = "load_more"
	EventOpen     = "open"
	EventClose    = "close"
	EventPing     = "ping"
)

// Server message types.
const (
	MessageSession = "session"
	MessageReplace = "replace"
	MessageModal   = "modal"
	MessageError   = "error"
	MessagePong    = "pong"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// LiveEvent is what the page sends over the live socket.
type LiveEvent struct {
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	ID       string `json:"id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// LiveMessage is what the server pushes back. Replace messages swap the
// content of Target; modal messages carry the modal state.
type LiveMessage struct {
	Type         string `json:"type"`
	Session      string `json:"session,omitempty"`
	Target       string `json:"target,omitempty"`
	HTML         string `json:"html,omitempty"`
	State        string `json:"state,omitempty"`
	ScrollLocked bool   `json:"scroll_locked"`
	Error        string `json:"error,omitempty"`
}

// Live handles GET /live/{kind}, upgrading to a websocket that drives one
// catalog page.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.lookupKind(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live: upgrade failed", "kind", kind.Name, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	send := func(m LiveMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(m)
	}
	session := NewLiveSession(ctx, h, kind, send)
	defer session.Close()

	h.metrics.SessionOpened()
	defer h.metrics.SessionClosed()
	h.logger.Info("live: session opened", "kind", kind.Name, "session_id", session.ID)

	if err := send(LiveMessage{Type: MessageSession, Session: session.ID}); err != nil {
		return
	}
	if err := session.Start(); err != nil {
		h.logger.Warn("live: initial render failed", "session_id", session.ID, "error", err)
	}

	for {
		var ev LiveEvent
		if err := conn.ReadJSON(&ev); err != nil {
			h.logger.Debug("live: connection closed", "session_id", session.ID, "error", err)
			return
		}
		if err := session.Handle(ev); err != nil {
			h.logger.Warn("live: event failed", "session_id", session.ID, "type", ev.Type, "error", err)
		}
	}
}

// LiveSession holds the per-connection page state: the catalog filter, the
// pending search and the detail modal. Events are handled in arrival order by
// the connection's read loop; debounced searches complete on timer
// goroutines.
type LiveSession struct {
	ID string

	ctx      context.Context
	handler  *Handler
	kind     *catalog.Kind
	ctrl     *catalog.Controller
	debounce *catalog.Debouncer
	modal    *catalog.Modal
	renderer *render.Renderer
	metrics  *metrics.SiteMetrics
	logger   *logging.Logger
	send     func(LiveMessage) error
}

// NewLiveSession creates a session for kind. send must be safe for
// concurrent use.
func NewLiveSession(ctx context.Context, h *Handler, kind *catalog.Kind, send func(LiveMessage) error) *LiveSession {
	return &LiveSession{
		ID:       uuid.NewString(),
		ctx:      ctx,
		handler:  h,
		kind:     kind,
		ctrl:     h.controller(kind),
		debounce: catalog.NewDebouncer(h.debounce),
		modal:    &catalog.Modal{},
		renderer: h.renderer,
		metrics:  h.metrics,
		logger:   h.logger,
		send:     send,
	}
}

// Start loads and pushes the initial list.
func (s *LiveSession) Start() error {
	v, err := s.ctrl.Load(s.ctx)
	return s.replace(v, err)
}

// Handle dispatches one client event.
func (s *LiveSession) Handle(ev LiveEvent) error {
	s.metrics.ObserveLiveEvent(eventLabel(ev.Type))
	switch ev.Type {
	case EventCategory:
		v, err := s.ctrl.SelectCategory(s.ctx, ev.Category)
		return s.replace(v, err)
	case EventSearch:
		term := ev.Search
		s.debounce.Trigger(func() {
			v, err := s.ctrl.SetSearch(s.ctx, term)
			if err := s.replace(v, err); err != nil {
				s.logger.Warn("live: search failed", "session_id", s.ID, "error", err)
			}
		})
		return nil
	case EventLoadMore:
		v, err := s.ctrl.LoadMore(s.ctx)
		return s.replace(v, err)
	case EventOpen:
		return s.open(ev.ID)
	case EventClose:
		reason, err := catalog.ParseCloseReason(ev.Reason)
		if err != nil {
			return s.send(LiveMessage{Type: MessageError, Error: err.Error()})
		}
		if !s.modal.Close(reason) {
			return nil
		}
		return s.sendModal()
	case EventPing:
		return s.send(LiveMessage{Type: MessagePong})
	default:
		return s.send(LiveMessage{Type: MessageError, Error: "unknown event " + ev.Type})
	}
}

// eventLabel keeps the metric label set closed.
func eventLabel(t string) string {
	switch t {
	case EventCategory, EventSearch, EventLoadMore, EventOpen, EventClose, EventPing:
		return t
	}
	return "unknown"
}

// Close cancels any pending search.
func (s *LiveSession) Close() {
	s.debounce.Stop()
}

// Modal exposes the session's modal state.
func (s *LiveSession) Modal() *catalog.Modal {
	return s.modal
}

func (s *LiveSession) open(id string) error {
	if id == "" {
		return s.send(LiveMessage{Type: MessageError, Error: "missing item id"})
	}
	html, _ := s.handler.detailHTML(s.ctx, s.kind, id, s.ctrl)
	s.modal.Open(id, html)
	return s.sendModal()
}

func (s *LiveSession) sendModal() error {
	return s.send(LiveMessage{
		Type:         MessageModal,
		State:        s.modal.State().String(),
		HTML:         s.modal.Content(),
		ScrollLocked: s.modal.ScrollLocked(),
	})
}

// replace pushes the grid and the load-more slot. Superseded results are
// dropped silently; the newer request sends its own replacement.
func (s *LiveSession) replace(v catalog.View, err error) error {
	if errors.Is(err, catalog.ErrStale) {
		return nil
	}
	if err != nil {
		return err
	}
	list, err := s.renderer.List(v)
	if err != nil {
		return err
	}
	more, err := s.renderer.More(v)
	if err != nil {
		return err
	}
	if err := s.send(LiveMessage{Type: MessageReplace, Target: render.ContainerID(s.kind.Name), HTML: list}); err != nil {
		return err
	}
	return s.send(LiveMessage{Type: MessageReplace, Target: render.MoreID(s.kind.Name), HTML: more})
}
