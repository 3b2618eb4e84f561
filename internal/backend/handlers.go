package backend

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/skulls/internal/apperr"
	"github.com/starford/skulls/internal/httpjson"
	"github.com/starford/skulls/internal/hypermedia"
	"github.com/starford/skulls/internal/sse"
)

const contentType = hypermedia.MediaTypeHALForms

// Notifier receives change notifications. *sse.Broker satisfies it.
type Notifier interface {
	PublishChange(c sse.Change)
}

type nopNotifier struct{}

func (nopNotifier) PublishChange(sse.Change) {}

// Handler holds the change-request route handlers.
type Handler struct {
	repo      Repository
	notifier  Notifier
	publicURL string
}

// NewHandler creates a Handler. notifier may be nil. publicURL, when set,
// is the base of every link the handlers emit.
func NewHandler(repo Repository, notifier Notifier, publicURL string) *Handler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Handler{repo: repo, notifier: notifier, publicURL: publicURL}
}

func writeHAL(w http.ResponseWriter, status int, v any) {
	httpjson.WriteType(w, status, contentType, v)
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		httpjson.Write(w, http.StatusBadRequest, httpjson.ErrorBody{Error: "validation failed", Fields: verrs})
	case errors.Is(err, apperr.ErrValidation):
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrConflict):
		httpjson.Error(w, http.StatusConflict, "change request was modified")
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid JSON body")
		return in, false
	}
	return in, true
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeHAL(w, http.StatusOK, newLinker(h.publicURL, r).rootResource())
}

// List handles GET /change-requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	res, err := h.repo.List(r.Context(), ListQuery{
		Page:    page,
		Size:    size,
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
		Status:  Status(q.Get("status")),
	})
	if err != nil {
		writeError(w, "list change requests", err)
		return
	}
	writeHAL(w, http.StatusOK, newLinker(h.publicURL, r).collectionResource(res))
}

// Get handles GET /change-requests/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}
	cr, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get change request", err)
		return
	}
	w.Header().Set("ETag", quoteETag(ETag(cr)))
	writeHAL(w, http.StatusOK, newLinker(h.publicURL, r).itemResource(*cr))
}

// Create handles POST /change-requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	cr, err := h.repo.Create(r.Context(), in)
	if err != nil {
		writeError(w, "create change request", err)
		return
	}
	l := newLinker(h.publicURL, r)
	h.notifier.PublishChange(sse.Change{Kind: sse.KindCreated, ID: cr.ID, Href: l.item(cr.ID)})

	w.Header().Set("ETag", quoteETag(ETag(cr)))
	w.Header().Set("Location", l.item(cr.ID))
	writeHAL(w, http.StatusOK, l.itemResource(*cr))
}

// Update handles PUT /change-requests/{id}. An If-Match header enables
// optimistic concurrency.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	cr, err := h.repo.Update(r.Context(), id, in, parseIfMatch(r.Header.Get("If-Match")))
	if err != nil {
		writeError(w, "update change request", err)
		return
	}
	l := newLinker(h.publicURL, r)
	h.notifier.PublishChange(sse.Change{Kind: sse.KindUpdated, ID: cr.ID, Href: l.item(cr.ID)})

	w.Header().Set("ETag", quoteETag(ETag(cr)))
	writeHAL(w, http.StatusOK, l.itemResource(*cr))
}

// Delete handles DELETE /change-requests/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpjson.Error(w, http.StatusNotFound, "not found")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, "delete change request", err)
		return
	}
	h.notifier.PublishChange(sse.Change{Kind: sse.KindDeleted, ID: id})
	w.WriteHeader(http.StatusNoContent)
}
