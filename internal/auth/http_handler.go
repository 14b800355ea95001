package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"readmore/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type loginRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// Login handles POST /v1/auth/login.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", nil)
		return
	}

	if details := httpx.ValidateStruct(req); details != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", details)
		return
	}

	result, err := h.service.Login(req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL", "failed to issue token", nil)
		return
	}

	httpx.JSONSuccess(w, r, result, nil)
}
