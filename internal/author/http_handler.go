package author

import (
	"errors"
	"net/http"
	"strconv"

	"readmore/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /v1/authors
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Q:             query.Get("q"),
		IncludeHidden: query.Get("include_hidden") == "true",
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	authors, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	meta := map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	httpx.JSONSuccess(w, r, authors, meta)
}

// Get handles GET /v1/authors/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "author ID is required", nil)
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, a, nil)
}

// Hide handles POST /v1/authors/{id}/hide
func (h *HTTPHandler) Hide(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, true)
}

// Unhide handles POST /v1/authors/{id}/unhide
func (h *HTTPHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, false)
}

func (h *HTTPHandler) setHidden(w http.ResponseWriter, r *http.Request, hidden bool) {
	id := r.PathValue("id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "author ID is required", nil)
		return
	}

	var err error
	if hidden {
		err = h.service.Hide(r.Context(), id)
	} else {
		err = h.service.Unhide(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccessNoContent(w)
}
