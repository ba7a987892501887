package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// CompareHandler handles cross-model comparisons of stored documents.
type CompareHandler struct {
	logger     *observability.Logger
	store      DocumentStore
	comparator *comparison.Comparator
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(logger *observability.Logger, store DocumentStore, comparator *comparison.Comparator) *CompareHandler {
	return &CompareHandler{
		logger:     logger,
		store:      store,
		comparator: comparator,
	}
}

// CompareRequestDTO represents the API request for a comparison.
type CompareRequestDTO struct {
	ModelNumbers []string `json:"model_numbers"`
}

// CompareResponseDTO wraps the comparison with the models that were left out.
type CompareResponseDTO struct {
	Comparison   *comparison.Response `json:"comparison,omitempty"`
	FailedModels []FailedModelDTO     `json:"failed_models"`
}

// Compare handles POST /v1/compare.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO CompareRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(reqDTO.ModelNumbers) < 2 {
		writeError(w, http.StatusBadRequest, "model_numbers needs at least 2 entries", "")
		return
	}

	docs, missing, err := h.store.GetMany(ctx, reqDTO.ModelNumbers)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load documents")
		writeError(w, http.StatusInternalServerError, "comparison failed", err.Error())
		return
	}

	failed := make([]FailedModelDTO, 0, len(missing))
	for _, m := range missing {
		failed = append(failed, FailedModelDTO{Model: m, Error: "no stored document"})
	}
	if len(missing) > 0 {
		h.logger.Warn().Strs("models", missing).Msg("Comparing without models that have no stored document")
	}

	resp, err := h.comparator.Compare(docs, reqDTO.ModelNumbers)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]any{
			"error":         "comparison unavailable",
			"detail":        err.Error(),
			"failed_models": failed,
		})
		return
	}
	for _, m := range resp.SkippedModels {
		if _, ok := docs[m]; ok {
			failed = append(failed, FailedModelDTO{Model: m, Error: "invalid stored document"})
		}
	}

	writeJSON(w, http.StatusOK, CompareResponseDTO{Comparison: resp, FailedModels: failed})
}
