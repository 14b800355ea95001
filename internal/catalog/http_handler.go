package catalog

import (
	"errors"
	"net/http"

	"readmore/internal/author"
	"readmore/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// ListEntries handles GET /v1/authors/{id}/catalog
func (h *HTTPHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListEntries(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	meta := map[string]any{"total": len(entries)}
	httpx.JSONSuccess(w, r, entries, meta)
}

// Fetch handles POST /v1/authors/{id}/fetch
func (h *HTTPHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	result, err := h.service.FetchAuthorCatalog(r.Context(), r.PathValue("id"), force)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, result, nil)
}

// PreviewCleanup handles GET /v1/authors/{id}/cleanup/{category}
func (h *HTTPHandler) PreviewCleanup(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.PreviewCleanup(r.Context(), r.PathValue("id"), r.PathValue("category"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, preview, nil)
}

// ApplyCleanup handles POST /v1/authors/{id}/cleanup/{category}/apply
func (h *HTTPHandler) ApplyCleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ApplyCleanup(r.Context(), r.PathValue("id"), r.PathValue("category"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, result, nil)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, author.ErrNotFound), errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
	case errors.Is(err, ErrAuthorHidden):
		httpx.JSONError(w, r, http.StatusConflict, "AUTHOR_HIDDEN", "author is hidden; unhide before fetching", nil)
	case errors.Is(err, ErrAuthorNotFoundUpstream):
		httpx.JSONError(w, r, http.StatusNotFound, "UPSTREAM_NOT_FOUND", "author not found on Open Library", nil)
	case errors.Is(err, ErrUnknownCategory):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "unknown cleanup category", nil)
	default:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
