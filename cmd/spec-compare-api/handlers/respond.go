// Package handlers provides HTTP handlers for the spec-compare API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/storage"
)

// FailedModelDTO reports a model that could not be built or loaded.
type FailedModelDTO struct {
	Model string `json:"model"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// statusFor maps an error to the HTTP status reported to callers.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case domain.IsType(err, domain.ErrorTypePrecondition),
		domain.IsType(err, domain.ErrorTypeValidation),
		domain.IsType(err, domain.ErrorTypeExtraction):
		return http.StatusUnprocessableEntity
	case domain.IsType(err, domain.ErrorTypeIO):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
