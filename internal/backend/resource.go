package backend

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/skulls/internal/checksum"
	"github.com/starford/skulls/internal/hypermedia"
)

const collectionPath = "/change-requests"

// Link is a HAL link object.
type Link struct {
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// ItemResource is the HAL-FORMS representation of one change request.
type ItemResource struct {
	ChangeRequest
	Links     map[string]Link                `json:"_links"`
	Templates map[string]hypermedia.Template `json:"_templates,omitempty"`
}

// PageMetadata describes the page a collection response carries.
type PageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// CollectionResource is the HAL-FORMS representation of a page of change requests.
type CollectionResource struct {
	Embedded  map[string][]ItemResource      `json:"_embedded"`
	Links     map[string]Link                `json:"_links"`
	Templates map[string]hypermedia.Template `json:"_templates,omitempty"`
	Page      PageMetadata                   `json:"page"`
}

// RootResource is the API entry point.
type RootResource struct {
	Title string          `json:"title"`
	Links map[string]Link `json:"_links"`
}

// ETag returns the entity tag of a change request's current state.
func ETag(cr *ChangeRequest) string {
	// A ChangeRequest always encodes.
	tag, _ := checksum.JSON(cr)
	return tag
}

// linker builds absolute URLs against the public base of the service.
type linker struct {
	base string
}

// newLinker uses publicURL when set and the request's own scheme and host
// otherwise.
func newLinker(publicURL string, r *http.Request) linker {
	if publicURL != "" {
		return linker{base: strings.TrimRight(publicURL, "/")}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return linker{base: scheme + "://" + r.Host}
}

func (l linker) root() string {
	return l.base + "/"
}

func (l linker) item(id int64) string {
	return l.base + collectionPath + "/" + strconv.FormatInt(id, 10)
}

func (l linker) collection(q ListQuery) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	v.Set("sortBy", q.SortBy)
	v.Set("sortDir", q.SortDir)
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return l.base + collectionPath + "?" + v.Encode()
}

func (l linker) defaultCollection() string {
	return l.collection(ListQuery{Page: 0, Size: DefaultPageSize, SortBy: "id", SortDir: "desc"})
}

func (l linker) rootResource() RootResource {
	return RootResource{
		Title: "Change Request API",
		Links: map[string]Link{
			"self":            {Href: l.root()},
			"change-requests": {Href: l.defaultCollection(), Title: "Change requests"},
			"events":          {Href: l.base + "/events", Type: "text/event-stream"},
		},
	}
}

func (l linker) itemResource(cr ChangeRequest) ItemResource {
	self := l.item(cr.ID)
	return ItemResource{
		ChangeRequest: cr,
		Links: map[string]Link{
			"self":                {Href: self},
			"all-change-requests": {Href: l.defaultCollection()},
			"update":              {Href: self},
			"delete":              {Href: self},
		},
		Templates: map[string]hypermedia.Template{
			"default": {
				Method:      http.MethodPut,
				Target:      self,
				Title:       "Update change request",
				ContentType: hypermedia.MediaTypeJSON,
				Properties:  formProperties(),
			},
			"delete": {
				Method: http.MethodDelete,
				Target: self,
				Title:  "Delete change request",
			},
		},
	}
}

func (l linker) collectionResource(res *ListResult) CollectionResource {
	q := res.Query
	items := make([]ItemResource, len(res.Items))
	for i, cr := range res.Items {
		items[i] = l.itemResource(cr)
	}

	links := map[string]Link{
		"self":   {Href: l.collection(q)},
		"create": {Href: l.base + collectionPath, Type: hypermedia.MediaTypeJSON},
	}
	for rel, st := range map[string]Status{
		"search-pending":     StatusPending,
		"search-in-progress": StatusInProgress,
		"search-completed":   StatusCompleted,
	} {
		filtered := q
		filtered.Status = st
		links[rel] = Link{Href: l.collection(filtered)}
	}

	pages := res.TotalPages()
	page := func(n int) string {
		p := q
		p.Page = n
		return l.collection(p)
	}
	if pages > 0 {
		links["first"] = Link{Href: page(0)}
		links["last"] = Link{Href: page(pages - 1)}
	}
	if q.Page > 0 && q.Page < pages {
		links["prev"] = Link{Href: page(q.Page - 1)}
	}
	if q.Page+1 < pages {
		links["next"] = Link{Href: page(q.Page + 1)}
	}

	return CollectionResource{
		Embedded: map[string][]ItemResource{"changeRequests": items},
		Links:    links,
		Templates: map[string]hypermedia.Template{
			"default": {
				Method:      http.MethodPost,
				Target:      l.base + collectionPath,
				Title:       "Create change request",
				ContentType: hypermedia.MediaTypeJSON,
				Properties:  formProperties(),
			},
		},
		Page: PageMetadata{
			Size:          q.Size,
			TotalElements: res.Total,
			TotalPages:    pages,
			Number:        q.Page,
		},
	}
}

// formProperties mirrors Input.Validate as HAL-FORMS properties.
func formProperties() []hypermedia.Property {
	statuses := make([]string, len(Statuses))
	for i, s := range Statuses {
		statuses[i] = string(s)
	}
	return []hypermedia.Property{
		{Name: "title", Prompt: "Title", Required: true, MinLength: 3, MaxLength: 100},
		{Name: "description", Prompt: "Description", Type: "textarea", MaxLength: 1000},
		{Name: "status", Prompt: "Status", Options: &hypermedia.Options{Inline: statuses}},
		{Name: "requestedBy", Prompt: "Requested by", Required: true, MinLength: 2, MaxLength: 50},
	}
}

func quoteETag(tag string) string {
	return fmt.Sprintf("%q", tag)
}

// parseIfMatch strips the quotes and weak prefix of an If-Match value.
// "*" matches any current state and is returned as empty.
func parseIfMatch(v string) string {
	v = strings.TrimSpace(v)
	if v == "*" {
		return ""
	}
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}
