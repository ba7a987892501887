package extractor

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// JSONSource reads output previously produced by an external extractor.
type JSONSource struct{}

func NewJSONSource() *JSONSource {
	return &JSONSource{}
}

func (s *JSONSource) Extract(_ context.Context, req Request) (*Output, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, domain.IOError("read extractor output", err)
	}
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, domain.ExtractionError("decode extractor output "+req.Path, err)
	}
	return &out, nil
}
