// Package ingest turns extractor output into specification documents and
// fans extraction out across many sources.
package ingest

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/extractor"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/tables"
)

// Builder assembles one document from extractor output.
type Builder struct {
	parser *tables.Parser
	logger *observability.Logger
}

// NewBuilder creates a Builder. A nil parser uses the built-in unit table.
func NewBuilder(parser *tables.Parser, logger *observability.Logger) *Builder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if parser == nil {
		parser = tables.NewParser(nil, logger)
	}
	return &Builder{parser: parser, logger: logger}
}

// Build creates the document for modelID. The model number taken from the
// source file name wins over modelID. A source with no text at all is an
// extraction error; text without tables gives a valid, empty document.
func (b *Builder) Build(modelID string, out *extractor.Output) (*specs.Document, error) {
	if out.IsEmpty() {
		return nil, domain.ExtractionError(fmt.Sprintf("no usable text or tables for %q", modelID), nil)
	}

	model := modelID
	if out.SourceName != "" {
		if m := ExtractModelNumber(out.SourceName); m != "" {
			model = m
		}
	}
	log := b.logger.WithModel(model)

	tree := specs.NewTree()
	features, advantages := b.featureText(out)
	if features != "" || advantages != "" {
		fa := specs.Canonical(specs.KindFeaturesAndAdvantages)
		tree.Put(fa, specs.FeaturesCategory, "", specs.Specification{Value: features})
		tree.Put(fa, specs.AdvantagesCategory, "", specs.Specification{Value: advantages})
	}

	for i, t := range out.Tables {
		parsed := b.parser.Parse(t)
		log.Debug().Int("table", i).Int("specifications", parsed.Len()).Msg("parsed table")
		tree.Merge(parsed)
	}

	if out.DiagramRef != "" {
		tree.Put(specs.Canonical(specs.KindDiagram), "", "", specs.Specification{Value: out.DiagramRef})
	}

	pages := []specs.Page{{Number: 1, Text: out.PageText, Tables: out.Tables}}
	doc := specs.NewDocument(model, out.PageText, tree, pages)
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("tables", len(out.Tables)).
		Int("specifications", doc.SpecificationCount()).
		Msg("document built")
	return doc, nil
}

// featureText prefers a Features/Advantages table over the text regions.
func (b *Builder) featureText(out *extractor.Output) (features, advantages string) {
	for _, t := range out.Tables {
		if f, a, ok := tables.FeatureColumns(t); ok {
			return cleanBlock(f), cleanBlock(a)
		}
	}
	return cleanBlock(out.FeaturesText), cleanBlock(out.AdvantagesText)
}

// cleanBlock trims lines, drops blanks and the literal section headers.
func cleanBlock(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if line == "" || lower == "features" || lower == "advantages" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
