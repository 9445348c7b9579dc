package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/docsearch/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error string      `json:"error"`
	Code  models.Kind `json:"code"`
}

// statusFor maps a failure kind to the HTTP status returned to callers.
func statusFor(kind models.Kind) int {
	switch kind {
	case models.KindUnsupportedFormat, models.KindInvalidArgument:
		return http.StatusBadRequest
	case models.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case models.KindEmbeddingFailed, models.KindStoreResponseMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: kind})
}
