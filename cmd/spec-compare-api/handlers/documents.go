package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/storage"
)

// DocumentStore is the repository surface the handlers use.
type DocumentStore interface {
	Save(ctx context.Context, modelNumber, sourceHash string, doc *specs.Document) (*storage.DocumentSummary, error)
	Get(ctx context.Context, modelNumber string) (*storage.StoredDocument, error)
	GetMany(ctx context.Context, models []string) (map[string]*specs.Document, []string, error)
	List(ctx context.Context) ([]storage.DocumentSummary, error)
	Delete(ctx context.Context, modelNumber string) error
}

// DocumentBuilder runs extraction for a batch of sources.
type DocumentBuilder interface {
	Run(ctx context.Context, refs []string) (*ingest.Result, error)
}

// DocumentHandler handles document extraction and retrieval.
type DocumentHandler struct {
	logger  *observability.Logger
	store   DocumentStore
	builder DocumentBuilder
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(logger *observability.Logger, store DocumentStore, builder DocumentBuilder) *DocumentHandler {
	return &DocumentHandler{
		logger:  logger,
		store:   store,
		builder: builder,
	}
}

// ExtractRequestDTO names the sources to extract: file paths or model
// numbers resolved in the source directory.
type ExtractRequestDTO struct {
	Sources []string `json:"sources"`
}

// ExtractResponseDTO lists the stored documents and the failed sources.
type ExtractResponseDTO struct {
	Documents    []storage.DocumentSummary `json:"documents"`
	FailedModels []FailedModelDTO          `json:"failed_models"`
}

// SpecificationDTO is one looked-up specification.
type SpecificationDTO struct {
	ModelNumber  string  `json:"model_number"`
	Section      string  `json:"section"`
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory"`
	Value        string  `json:"value"`
	Unit         *string `json:"unit"`
	DisplayValue string  `json:"display_value"`
}

// Extract handles POST /v1/documents.
func (h *DocumentHandler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO ExtractRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(reqDTO.Sources) == 0 {
		writeError(w, http.StatusBadRequest, "sources is required", "")
		return
	}

	h.logger.Info().Strs("sources", reqDTO.Sources).Msg("Starting extraction")

	result, err := h.builder.Run(ctx, reqDTO.Sources)
	if err != nil {
		h.logger.Error().Err(err).Msg("Extraction aborted")
		writeError(w, http.StatusServiceUnavailable, "extraction aborted", err.Error())
		return
	}

	resp := ExtractResponseDTO{
		Documents:    make([]storage.DocumentSummary, 0, len(result.Order)),
		FailedModels: make([]FailedModelDTO, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		resp.FailedModels = append(resp.FailedModels, FailedModelDTO{Model: f.Ref, Error: f.Err.Error()})
	}
	for _, model := range result.Order {
		summary, err := h.store.Save(ctx, model, result.SourceHashes[model], result.Documents[model])
		if err != nil {
			h.logger.Error().Err(err).Str("model", model).Msg("Failed to store document")
			resp.FailedModels = append(resp.FailedModels, FailedModelDTO{Model: model, Error: err.Error()})
			continue
		}
		resp.Documents = append(resp.Documents, *summary)
	}

	status := http.StatusCreated
	if len(resp.Documents) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// List handles GET /v1/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		writeError(w, http.StatusInternalServerError, "list failed", err.Error())
		return
	}
	if list == nil {
		list = []storage.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": list})
}

// Get handles GET /v1/documents/{model}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	stored, err := h.store.Get(r.Context(), model)
	if err != nil {
		writeError(w, statusFor(err), "document unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Specification handles GET /v1/documents/{model}/specification.
func (h *DocumentHandler) Specification(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	q := r.URL.Query()
	section := q.Get("section")
	if section == "" {
		writeError(w, http.StatusBadRequest, "section is required", "")
		return
	}

	stored, err := h.store.Get(r.Context(), model)
	if err != nil {
		writeError(w, statusFor(err), "document unavailable", err.Error())
		return
	}

	spec, ok := stored.Document.Specification(section, q.Get("category"), q.Get("subcategory"))
	if !ok {
		writeError(w, http.StatusNotFound, "specification not found", "")
		return
	}
	resp := SpecificationDTO{
		ModelNumber:  model,
		Section:      section,
		Category:     q.Get("category"),
		Subcategory:  q.Get("subcategory"),
		Value:        spec.Value,
		DisplayValue: spec.DisplayValue(),
	}
	if spec.Unit != "" {
		resp.Unit = &spec.Unit
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /v1/documents/{model}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	if err := h.store.Delete(r.Context(), model); err != nil {
		writeError(w, statusFor(err), "delete failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
