package chat

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownAction is returned for actions the widget does not offer.
var ErrUnknownAction = errors.New("chat: unknown action")

// DefaultMapsURL points at the hospital on Google Maps.
const DefaultMapsURL = "https://maps.google.com/?q=Kisii+Teaching+Referral+Hospital"

// Kind tells the widget how to perform an action.
type Kind string

const (
	KindLink     Kind = "link"
	KindExternal Kind = "external"
	KindTel      Kind = "tel"
	KindMailto   Kind = "mailto"
	KindScroll   Kind = "scroll"
	KindModal    Kind = "modal"
)

// Action is a resolved chat widget option. The widget closes after every
// action.
type Action struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Href string `json:"href"`
}

// Config holds the contact points the actions lead to.
type Config struct {
	EmergencyPhone string
	HREmail        string
	MapsURL        string
}

// Resolver maps widget option names to actions.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	if cfg.MapsURL == "" {
		cfg.MapsURL = DefaultMapsURL
	}
	return &Resolver{cfg: cfg}
}

// Resolve returns the action for name.
func (r *Resolver) Resolve(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	a := Action{Name: name}
	switch name {
	case "appointment":
		a.Kind, a.Href = KindLink, "/appointment"
	case "services", "doctors", "departments", "gallery", "projects":
		a.Kind, a.Href = KindLink, "/"+name
	case "vacancies":
		a.Kind, a.Href = KindLink, "/jobs"
	case "emergency":
		a.Kind, a.Href = KindTel, "tel:"+strings.ReplaceAll(r.cfg.EmergencyPhone, " ", "")
	case "location", "directions":
		a.Kind, a.Href = KindExternal, r.cfg.MapsURL
	case "careers":
		a.Kind, a.Href = KindScroll, "#careers-why-us"
	case "application":
		a.Kind, a.Href = KindModal, "#applicationModal"
	case "contact", "hr":
		a.Kind = KindMailto
		a.Href = "mailto:" + r.cfg.HREmail + "?subject=" + url.PathEscape("Careers enquiry")
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return a, nil
}
