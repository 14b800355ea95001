package book

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

// List handles GET /v1/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		Author: query.Get("author"),
		Format: query.Get("format"),
		Q:      query.Get("q"),
		Cursor: query.Get("cursor"),
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	books, total, err := h.service.List(r.Context(), params)
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
	if len(books) == pageSize {
		last := books[len(books)-1]
		borrowed := ""
		if last.BorrowedAt != nil {
			borrowed = last.BorrowedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		meta["next_cursor"] = EncodeCursor(CursorData{AfterID: last.ID, BorrowedAt: borrowed})
	}

	httpx.JSONSuccess(w, r, books, meta)
}

// GetByISBN handles GET /v1/books/{isbn}
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if isbn == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "ISBN is required", nil)
		return
	}

	b, err := h.service.GetByISBN(r.Context(), isbn)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "ISBN not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}
