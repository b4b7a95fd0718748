package cms

import (
	"fmt"
	"regexp"
	"strings"
)

// MediaKind names the shape a media field arrived in.
type MediaKind int

const (
	MediaNone           MediaKind = iota
	MediaURLString                // "https://..." or "/uploads/a.jpg"
	MediaDirect                   // {url}
	MediaNestedRelation           // {data: {attributes: {url}}}
	MediaNestedData               // {data: {url}}
	MediaAttributes               // {attributes: {url}}
	MediaFormats                  // {formats: {large: {url}}}
	MediaNestedFormats            // {data: {attributes: {formats: {...}}}}
	MediaList                     // [ref, ...]
)

func (k MediaKind) String() string {
	switch k {
	case MediaNone:
		return "none"
	case MediaURLString:
		return "url_string"
	case MediaDirect:
		return "direct"
	case MediaNestedRelation:
		return "nested_relation"
	case MediaNestedData:
		return "nested_data"
	case MediaAttributes:
		return "attributes"
	case MediaFormats:
		return "formats"
	case MediaNestedFormats:
		return "nested_formats"
	case MediaList:
		return "list"
	default:
		return fmt.Sprintf("media_kind(%d)", int(k))
	}
}

// MediaRef is a classified media field. URL holds the raw (possibly relative)
// path for every kind except MediaNone and MediaList; lists carry their
// resolvable elements in Items.
type MediaRef struct {
	Kind  MediaKind
	URL   string
	Items []MediaRef
}

// FormatOrder is the preference order for responsive image formats.
var FormatOrder = []string{"large", "medium", "small", "thumbnail"}

// ClassifyMedia decides which shape v has, probing in priority order.
func ClassifyMedia(v any) MediaRef {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return MediaRef{Kind: MediaURLString, URL: s}
		}
	case []any:
		var items []MediaRef
		for _, elem := range val {
			if ref := ClassifyMedia(elem); ref.Kind != MediaNone {
				items = append(items, ref)
			}
		}
		if len(items) > 0 {
			return MediaRef{Kind: MediaList, Items: items}
		}
	case map[string]any:
		return classifyObject(val)
	}
	return MediaRef{Kind: MediaNone}
}

func classifyObject(obj map[string]any) MediaRef {
	if u := urlOf(obj); u != "" {
		return MediaRef{Kind: MediaDirect, URL: u}
	}
	data := obj["data"]
	if list, ok := data.([]any); ok {
		return ClassifyMedia(list)
	}
	dataObj, _ := data.(map[string]any)
	dataAttrs, _ := dataObj["attributes"].(map[string]any)
	if u := urlOf(dataAttrs); u != "" {
		return MediaRef{Kind: MediaNestedRelation, URL: u}
	}
	if u := urlOf(dataObj); u != "" {
		return MediaRef{Kind: MediaNestedData, URL: u}
	}
	if attrs, ok := obj["attributes"].(map[string]any); ok {
		if u := urlOf(attrs); u != "" {
			return MediaRef{Kind: MediaAttributes, URL: u}
		}
	}
	if u := formatURL(obj["formats"]); u != "" {
		return MediaRef{Kind: MediaFormats, URL: u}
	}
	if u := formatURL(dataAttrs["formats"]); u != "" {
		return MediaRef{Kind: MediaNestedFormats, URL: u}
	}
	return MediaRef{Kind: MediaNone}
}

func urlOf(obj map[string]any) string {
	if obj == nil {
		return ""
	}
	s, _ := obj["url"].(string)
	return strings.TrimSpace(s)
}

func formatURL(v any) string {
	formats, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, size := range FormatOrder {
		if f, ok := formats[size].(map[string]any); ok {
			if u := urlOf(f); u != "" {
				return u
			}
		}
	}
	return ""
}

// DefaultPlaceholder is used when a category has no placeholder of its own.
const DefaultPlaceholder = "https://images.unsplash.com/photo-1586773860418-dc22f8b874bc?auto=format&fit=crop&w=600&q=70"

var defaultPlaceholders = map[string]string{
	"events":       "https://images.unsplash.com/photo-1516549655669-df6654e435de?auto=format&fit=crop&w=600&q=70",
	"facilities":   "https://images.unsplash.com/photo-1519494026892-80bbd2d6fd0d?auto=format&fit=crop&w=600&q=70",
	"team":         "https://images.unsplash.com/photo-1582750433449-648ed127bb54?auto=format&fit=crop&w=600&q=70",
	"achievements": "https://images.unsplash.com/photo-1559757148-5c350d0d3c56?auto=format&fit=crop&w=600&q=70",
	"community":    "https://images.unsplash.com/photo-1579684385127-1ef15d508118?auto=format&fit=crop&w=600&q=70",
	"videos":       DefaultPlaceholder,
	"departments":  DefaultPlaceholder,
	"doctors":      "https://images.unsplash.com/photo-1559839734-2b71ea197ec2?auto=format&fit=crop&w=600&q=70",
	"services":     "https://images.unsplash.com/photo-1576091160399-112ba8d25d1d?auto=format&fit=crop&w=600&q=70",
	"projects":     "https://images.unsplash.com/photo-1538108149393-fbbd81895907?auto=format&fit=crop&w=600&q=70",
}

// Resolver turns media fields into absolute URLs.
type Resolver struct {
	assetBase    string
	placeholders map[string]string
}

// NewResolver creates a resolver that prefixes relative paths with assetBase.
func NewResolver(assetBase string) *Resolver {
	return &Resolver{
		assetBase:    strings.TrimRight(assetBase, "/"),
		placeholders: defaultPlaceholders,
	}
}

// Resolve returns an absolute URL for v, or the category placeholder when no
// supported shape carries one.
func (r *Resolver) Resolve(v any, category string) string {
	if u := r.URL(v); u != "" {
		return u
	}
	return r.Placeholder(category)
}

// URL returns the absolute URL carried by v, or "" when there is none.
func (r *Resolver) URL(v any) string {
	ref := ClassifyMedia(v)
	switch ref.Kind {
	case MediaNone:
		return ""
	case MediaList:
		return r.Absolute(ref.Items[0].URL)
	case MediaURLString, MediaDirect, MediaNestedRelation, MediaNestedData,
		MediaAttributes, MediaFormats, MediaNestedFormats:
		return r.Absolute(ref.URL)
	default:
		return ""
	}
}

// Placeholder returns the closed-set placeholder for category.
func (r *Resolver) Placeholder(category string) string {
	if p, ok := r.placeholders[strings.ToLower(category)]; ok {
		return p
	}
	return DefaultPlaceholder
}

// Absolute prefixes relative paths with the asset base URL.
func (r *Resolver) Absolute(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "data:"):
		return path
	case strings.HasPrefix(path, "//"):
		return "https:" + path
	}
	return r.assetBase + "/" + strings.TrimLeft(path, "/")
}

var youTubePattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// YouTubeID extracts the 11 character video id from a YouTube URL.
func YouTubeID(u string) string {
	m := youTubePattern.FindStringSubmatch(u)
	if len(m) < 3 || len(m[2]) != 11 {
		return ""
	}
	return m[2]
}

// VideoThumbnail returns the YouTube thumbnail for a video URL, if any.
func VideoThumbnail(u string) string {
	if id := YouTubeID(u); id != "" {
		return "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
	}
	return ""
}

// EmbedURL returns the YouTube embed URL for a video URL, if any.
func EmbedURL(u string) string {
	if id := YouTubeID(u); id != "" {
		return "https://www.youtube.com/embed/" + id
	}
	return ""
}
