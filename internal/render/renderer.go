package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/wolfman30/hospital-site/internal/catalog"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notification kinds.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Renderer produces HTML fragments for catalog pages. Every fragment
// replaces its container wholesale, so rendering has no side effects and
// identical input always yields identical output.
type Renderer struct {
	tmpl *template.Template
}

// HomeData feeds the home page template.
type HomeData struct {
	HeroTitle    string
	HeroSubtitle string
	HeroVideo    string
	Featured     []catalog.Item
	Stats        []catalog.Fact
}

// Section is one titled block of prose.
type Section struct {
	Heading string
	Text    string
	Items   []string
}

// AboutData feeds the about page template.
type AboutData struct {
	Title    string
	Sections []Section
}

var funcs = template.FuncMap{
	"containerID": ContainerID,
	"moreID":      MoreID,
	"lower":       strings.ToLower,
	"categoryLabel": func(k *catalog.Kind, tag string) string {
		if strings.EqualFold(tag, catalog.CategoryAll) {
			return "All " + k.Label
		}
		if label, ok := k.CategoryLabels[strings.ToLower(tag)]; ok {
			return label
		}
		return tag
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("site").Funcs(funcs).Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New for package-level wiring; the templates are embedded so a
// failure is a build defect.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// ContainerID is the element id whose content a list render replaces.
func ContainerID(kind string) string {
	return kind + "-grid"
}

// MoreID is the element id of a catalog's load-more slot.
func MoreID(kind string) string {
	return kind + "-more"
}

// Page renders a full catalog section with filters, the list container and
// the load-more control.
func (r *Renderer) Page(v catalog.View) (string, error) {
	return r.execute("page", v)
}

// List renders the cards for v, or its empty state.
func (r *Renderer) List(v catalog.View) (string, error) {
	return r.execute("list", v)
}

// More renders the load-more control that sits below the grid.
func (r *Renderer) More(v catalog.View) (string, error) {
	return r.execute("more", v)
}

// Detail renders the modal body for one item, including fields hidden on
// cards.
func (r *Renderer) Detail(item catalog.Item) (string, error) {
	return r.execute("detail", item)
}

// DetailError renders the modal body shown when an item cannot be loaded.
func (r *Renderer) DetailError(kind, id string) (string, error) {
	return r.execute("detail_error", map[string]string{"Kind": kind, "ID": id})
}

// Notification renders a transient banner. Unknown kinds render as info.
func (r *Renderer) Notification(kind, message string) (string, error) {
	switch kind {
	case NotifySuccess, NotifyError, NotifyInfo:
	default:
		kind = NotifyInfo
	}
	return r.execute("notification", map[string]string{"Kind": kind, "Message": message})
}

func (r *Renderer) Home(d HomeData) (string, error) {
	return r.execute("home", d)
}

func (r *Renderer) About(d AboutData) (string, error) {
	return r.execute("about", d)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render: %s: %w", name, err)
	}
	return buf.String(), nil
}
