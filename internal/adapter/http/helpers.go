package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/logger"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// owner returns the authenticated owner for the request.
func owner(r *http.Request) string {
	if id := domain.OwnerFromContext(r.Context()); id != "" {
		return id
	}
	return domain.LocalOwnerID
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

// generationErrorResponse is the body for failed plan generations.
type generationErrorResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Kind    generation.Kind `json:"kind"`
	Details string          `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, fallbackMsg)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "resource was modified by another request")
	case errors.Is(err, domain.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	default:
		writeInternalError(w, r, err)
	}
}

// writeInternalError logs the actual error server-side and returns a generic message to the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", logger.RequestID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeGenerationError renders a *generation.Error with its mapped status.
// Other errors become a 500 without internal details.
func writeGenerationError(w http.ResponseWriter, r *http.Request, err error) {
	ge, ok := generation.AsError(err)
	if !ok {
		slog.Error("unexpected generation error", "request_id", logger.RequestID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, generationErrorResponse{
			Error: "Failed to generate project plan",
			Kind:  "internal_error",
		})
		return
	}
	writeJSON(w, ge.HTTPStatus(), generationErrorResponse{
		Error:   ge.Message,
		Kind:    ge.Kind,
		Details: ge.Details,
	})
}
