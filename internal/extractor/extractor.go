// Package extractor adapts concrete datasheet formats to the page text,
// tables and text regions the specification builder consumes.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// Table is a row-major grid of cells. Blank cells are empty strings.
type Table = [][]string

// Output is everything extracted from the first page of one source.
type Output struct {
	SourceName     string  `json:"source_name,omitempty"`
	PageText       string  `json:"page_text"`
	Tables         []Table `json:"tables"`
	FeaturesText   string  `json:"features_text,omitempty"`
	AdvantagesText string  `json:"advantages_text,omitempty"`
	DiagramRef     string  `json:"diagram_ref,omitempty"`
}

// IsEmpty reports whether the output carries no text of any kind.
func (o *Output) IsEmpty() bool {
	return o == nil ||
		strings.TrimSpace(o.PageText) == "" &&
			len(o.Tables) == 0 &&
			strings.TrimSpace(o.FeaturesText) == "" &&
			strings.TrimSpace(o.AdvantagesText) == ""
}

// Request describes one extraction. ModelNumber names rendered artifacts
// such as the diagram image and may be empty.
type Request struct {
	Path        string
	ModelNumber string
}

// Extractor reads one source format.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Output, error)
}

// Registry dispatches to an Extractor by file extension.
type Registry struct {
	byExt  map[string]Extractor
	logger *observability.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *observability.Logger) *Registry {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Registry{byExt: make(map[string]Extractor), logger: logger}
}

// Register binds an extractor to one or more extensions, e.g. ".pdf".
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract runs the extractor registered for the request's extension.
func (r *Registry) Extract(ctx context.Context, req Request) (*Output, error) {
	ext := strings.ToLower(filepath.Ext(req.Path))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, domain.ExtractionError(fmt.Sprintf("unsupported source type %q", ext), nil)
	}

	r.logger.Debug().Str("path", req.Path).Str("extension", ext).Msg("extracting source")
	out, err := e.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.SourceName == "" {
		out.SourceName = filepath.Base(req.Path)
	}
	return out, nil
}

// NewDefaultRegistry wires every built-in source type.
func NewDefaultRegistry(pdfCfg PDFConfig, logger *observability.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewJSONSource(), ".json")
	r.Register(NewPDFSource(pdfCfg, logger), ".pdf")
	r.Register(NewXLSXSource(), ".xlsx", ".xlsm")
	r.Register(NewHTMLSource(), ".html", ".htm")
	return r
}
