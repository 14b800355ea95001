package recommend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"readmore/internal/author"
	"readmore/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// List handles GET /v1/recommendations
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := Query{
		AuthorID:          query.Get("author_id"),
		Feedback:          query.Get("feedback"),
		FictionOnly:       query.Get("fiction_only") == "true",
		IncludeNonEnglish: query.Get("include_non_english") == "true",
		IncludeDownvoted:  query.Get("include_downvoted") == "true",
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

	recs, total, err := h.service.List(r.Context(), params)
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
	httpx.JSONSuccess(w, r, recs, meta)
}

// Generate handles POST /v1/authors/{id}/recommendations
func (h *HTTPHandler) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GenerateForAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, author.ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, result, nil)
}

type feedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=up down clear"`
}

// SetFeedback handles POST /v1/recommendations/{id}/feedback
func (h *HTTPHandler) SetFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}
	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", details)
		return
	}

	err := h.service.SetFeedback(r.Context(), r.PathValue("id"), req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "recommendation not found", nil)
		case errors.Is(err, ErrBadFeedback):
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "feedback must be up, down or clear", nil)
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// SeriesProgress handles GET /v1/authors/{id}/series
func (h *HTTPHandler) SeriesProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.SeriesProgressForAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, author.ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, progress, map[string]any{"total": len(progress)})
}
