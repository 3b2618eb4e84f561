package hypermedia

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLinks_MergesHALAndPlainLinks(t *testing.T) {
	doc, err := Parse([]byte(`{"_links":{"self":"/a"},"links":{"next":"/b"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]Link{
		"self": {Rel: "self", Href: "/a", Method: http.MethodGet},
		"next": {Rel: "next", Href: "/b", Method: http.MethodGet},
	}
	if diff := cmp.Diff(want, doc.Links()); diff != "" {
		t.Errorf("Links() mismatch (-want +got):\n%s", diff)
	}
}

func TestLinks_ObjectFormAndMethodInference(t *testing.T) {
	doc, err := Parse([]byte(`{
		"_links": {
			"self":   {"href": "http://x/cr/1"},
			"update": {"href": "http://x/cr/1"},
			"delete": {"href": "http://x/cr/1", "title": "Remove"},
			"create": {"href": "http://x/cr", "type": "application/json"},
			"approve": {"href": "http://x/cr/1/approve", "method": "patch"},
			"broken": {"title": "no href"}
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	links := doc.Links()
	if _, ok := links["broken"]; ok {
		t.Error("link without href should be dropped")
	}
	cases := map[string]string{
		"self":    http.MethodGet,
		"update":  http.MethodPut,
		"delete":  http.MethodDelete,
		"create":  http.MethodPost,
		"approve": http.MethodPatch,
	}
	for rel, method := range cases {
		if got := links[rel].Method; got != method {
			t.Errorf("%s method = %q, want %q", rel, got, method)
		}
	}
	if links["create"].Type != "application/json" {
		t.Errorf("create type = %q", links["create"].Type)
	}
	if links["delete"].Title != "Remove" {
		t.Errorf("delete title = %q", links["delete"].Title)
	}
}

func TestLinks_RootHrefBecomesSelf(t *testing.T) {
	doc := Document{"href": "/root", "links": map[string]any{"self": "/other"}}
	if got := doc.Links()["self"].Href; got != "/root" {
		t.Errorf("self = %q, want /root", got)
	}
}

func TestLinks_ArrayForm(t *testing.T) {
	doc, err := Parse([]byte(`{"_links":{"item":[{"href":"/1"},{"href":"/2"}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Links()["item"].Href; got != "/1" {
		t.Errorf("item = %q, want /1", got)
	}
}

func TestSortedLinks(t *testing.T) {
	doc := Document{"_links": map[string]any{"b": "/b", "a": "/a", "c": "/c"}}
	var rels []string
	for _, l := range doc.SortedLinks() {
		rels = append(rels, l.Rel)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, rels); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RejectsNonObject(t *testing.T) {
	for _, in := range []string{`[1,2]`, `null`, `{bad`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%s) should fail", in)
		}
	}
}

func TestEmbeddedAndTemplates(t *testing.T) {
	doc, err := Parse([]byte(`{
		"_embedded": {"changeRequests": [{"id": 1}, {"id": 2}, "junk"], "bad": 3},
		"_templates": {"default": {"method": "POST", "properties": [
			{"name": "title", "required": true, "minLength": 3, "maxLength": 100}
		]}}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	emb := doc.Embedded()
	if len(emb["changeRequests"]) != 2 {
		t.Errorf("embedded items = %d, want 2", len(emb["changeRequests"]))
	}
	if _, ok := emb["bad"]; ok {
		t.Error("non-sequence collection should be skipped")
	}
	tpl := doc.Templates()["default"]
	want := Template{
		Method:     "POST",
		Properties: []Property{{Name: "title", Required: true, MinLength: 3, MaxLength: 100}},
	}
	if diff := cmp.Diff(want, tpl); diff != "" {
		t.Errorf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestAbsentSectionsAreValid(t *testing.T) {
	doc := Document{"title": "plain"}
	if len(doc.Links()) != 0 || doc.Embedded() != nil || doc.Templates() != nil {
		t.Error("absent sections should yield empty results")
	}
}
