package hypermedia

import (
	"net/http"
	"sort"
	"strings"
)

// Link is a resolved hypermedia control.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Links merges _links, links and a root-level href into one relation map.
// Later sources win on duplicate relations, in that order.
func (d Document) Links() map[string]Link {
	out := make(map[string]Link)
	for _, key := range []string{"_links", "links"} {
		section, ok := d[key].(map[string]any)
		if !ok {
			continue
		}
		for rel, v := range section {
			if l, ok := linkFrom(rel, v); ok {
				out[rel] = l
			}
		}
	}
	if href, ok := d["href"].(string); ok && href != "" {
		out["self"] = Link{Rel: "self", Href: href, Method: http.MethodGet}
	}
	return out
}

// SortedLinks returns Links ordered by relation name.
func (d Document) SortedLinks() []Link {
	m := d.Links()
	out := make([]Link, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rel < out[j].Rel })
	return out
}

func linkFrom(rel string, v any) (Link, bool) {
	switch t := v.(type) {
	case string:
		return Link{Rel: rel, Href: t, Method: InferMethod(rel)}, true
	case map[string]any:
		href, _ := t["href"].(string)
		if href == "" {
			return Link{}, false
		}
		l := Link{Rel: rel, Href: href}
		l.Type, _ = t["type"].(string)
		l.Title, _ = t["title"].(string)
		if m, ok := t["method"].(string); ok && m != "" {
			l.Method = strings.ToUpper(m)
		} else {
			l.Method = InferMethod(rel)
		}
		return l, true
	case []any:
		// HAL allows an array of link objects per relation; the first one wins.
		for _, item := range t {
			if l, ok := linkFrom(rel, item); ok {
				return l, true
			}
		}
	}
	return Link{}, false
}

// InferMethod derives an HTTP method from a relation name.
func InferMethod(rel string) string {
	switch rel {
	case "create":
		return http.MethodPost
	case "update", "edit":
		return http.MethodPut
	case "delete":
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}
