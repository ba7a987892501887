// Package comparison aligns specification documents of several models and
// reports where their values differ.
package comparison

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

// Comparator builds comparison responses. It never mutates the documents it
// is given.
type Comparator struct {
	logger  *observability.Logger
	metrics *observability.Metrics
	newID   func() string
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithMetrics records comparison outcomes and difference counts in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Comparator) { c.metrics = m }
}

// WithIDGenerator replaces the random comparison ID source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Comparator) { c.newID = fn }
}

// NewComparator creates a Comparator. A nil logger discards output.
func NewComparator(logger *observability.Logger, opts ...Option) *Comparator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	c := &Comparator{logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// triple addresses one comparable specification slot.
type triple struct {
	section     string
	category    string
	subcategory string
}

// Compare aligns docs in the given model order. Models without a document, or
// whose document fails validation, are skipped and listed in the response;
// fewer than two usable models is a precondition error.
func (c *Comparator) Compare(docs map[string]*specs.Document, order []string) (*Response, error) {
	log := c.logger.WithOperation("compare")
	if len(order) < 2 {
		c.metrics.ComparisonRun("rejected", 0)
		return nil, domain.PreconditionError(fmt.Sprintf("comparison needs at least 2 models, got %d", len(order)), nil)
	}

	models, skipped := c.usableModels(docs, order)
	if len(models) < 2 {
		c.metrics.ComparisonRun("rejected", 0)
		return nil, domain.PreconditionError(
			fmt.Sprintf("comparison needs at least 2 valid documents, got %d of %d", len(models), len(order)), nil)
	}

	resp := &Response{
		ModelNumbers:  models,
		ComparisonID:  c.newID(),
		SkippedModels: skipped,
	}

	if fa, ok := featureSection(docs, models); ok {
		resp.Sections = append(resp.Sections, fa)
	}

	sectionOrder, triples := collectTriples(docs, models)
	bySection := make(map[string][]Specification, len(sectionOrder))
	for _, t := range triples {
		spec, ok := alignTriple(docs, models, t)
		if !ok {
			continue
		}
		bySection[t.section] = append(bySection[t.section], spec)
		if spec.HasDifferences {
			resp.Differences = append(resp.Differences, describe(t, spec.Values))
		}
	}
	for _, name := range sectionOrder {
		resp.Sections = append(resp.Sections, Section{
			Name:       name,
			Categories: groupByCategory(bySection[name]),
		})
	}
	resp.DifferencesCount = len(resp.Differences)

	c.metrics.ComparisonRun("success", resp.DifferencesCount)
	log.WithComparison(resp.ComparisonID).Info().
		Strs("models", models).
		Int("specifications", len(triples)).
		Int("differences", resp.DifferencesCount).
		Msg("comparison complete")
	return resp, nil
}

func (c *Comparator) usableModels(docs map[string]*specs.Document, order []string) (models, skipped []string) {
	seen := make(map[string]bool, len(order))
	for _, m := range order {
		if seen[m] {
			continue
		}
		seen[m] = true

		doc, ok := docs[m]
		if !ok || doc == nil {
			c.logger.Warn().Str("model", m).Msg("no document for model, skipping")
			skipped = append(skipped, m)
			continue
		}
		if err := doc.Validate(); err != nil {
			c.logger.Warn().Err(err).Str("model", m).Msg("invalid document, skipping")
			skipped = append(skipped, m)
			continue
		}
		models = append(models, m)
	}
	return models, skipped
}

// featureSection merges the features and advantages of every model. It is
// only produced when at least one item exists.
func featureSection(docs map[string]*specs.Document, models []string) (Section, bool) {
	blocks := make(map[string]features.Blocks, len(models))
	for _, m := range models {
		f, a := docs[m].FeatureBlocks()
		blocks[m] = features.Blocks{Features: f, Advantages: a}
	}
	merged := features.Merge(models, blocks)
	if merged.IsEmpty() {
		return Section{}, false
	}

	section := Section{Name: specs.FeaturesAndAdvantagesName}
	if len(merged.Features) > 0 {
		section.Categories = append(section.Categories, CategoryGroup{Name: specs.FeaturesCategory, Features: merged.Features})
	}
	if len(merged.Advantages) > 0 {
		section.Categories = append(section.Categories, CategoryGroup{Name: specs.AdvantagesCategory, Features: merged.Advantages})
	}
	return section, true
}

// collectTriples returns the union of specification slots in first-seen
// order, walking models in order, plus the order sections were first seen.
func collectTriples(docs map[string]*specs.Document, models []string) ([]string, []triple) {
	var sections []string
	var triples []triple
	seenSection := make(map[string]bool)
	seenTriple := make(map[triple]bool)

	for _, m := range models {
		for _, s := range docs[m].Sections() {
			if s.ID().IsSynthetic() {
				continue
			}
			if !seenSection[s.Name()] {
				seenSection[s.Name()] = true
				sections = append(sections, s.Name())
			}
			for _, cat := range s.Categories() {
				for _, sub := range cat.Subcategories() {
					t := triple{section: s.Name(), category: cat.Name(), subcategory: sub}
					if !seenTriple[t] {
						seenTriple[t] = true
						triples = append(triples, t)
					}
				}
			}
		}
	}
	return sections, triples
}

// alignTriple gathers every model's value for t. Models without the slot are
// left out rather than given an empty value.
func alignTriple(docs map[string]*specs.Document, models []string, t triple) (Specification, bool) {
	spec := Specification{Category: t.category, Name: t.subcategory}
	distinct := make(map[string]bool)
	for _, m := range models {
		v, ok := docs[m].Specification(t.section, t.category, t.subcategory)
		if !ok {
			continue
		}
		spec.Values = append(spec.Values, ModelValue{Model: m, Specification: v})
		distinct[v.Value] = true
	}
	if len(spec.Values) == 0 {
		return Specification{}, false
	}
	spec.HasDifferences = len(distinct) > 1
	return spec, true
}

// describe picks the model reported for a differing slot. When every value
// is numeric it is the one with the largest magnitude; otherwise it is the
// first model holding a value.
//
// The non-numeric rule names the first model even when it holds the
// majority value. Callers depend on that choice, so it is kept as is.
func describe(t triple, values []ModelValue) Difference {
	d := Difference{
		Category:      t.section,
		Subcategory:   t.category,
		Specification: t.subcategory,
		Values:        make(map[string]string, len(values)),
	}
	for _, v := range values {
		d.Values[v.Model] = v.Value
	}
	if unit := values[0].Unit; unit != "" {
		d.Unit = &unit
	}

	if nums, ok := allNumeric(values); ok {
		extreme, hi, lo := 0, nums[0], nums[0]
		for i, n := range nums {
			if abs(n) > abs(nums[extreme]) {
				extreme = i
			}
			if n > hi {
				hi = n
			}
			if n < lo {
				lo = n
			}
		}
		d.Model = values[extreme].Model
		d.Description = fmt.Sprintf("Value of %s vs %s", formatFloat(hi), formatFloat(lo))
		return d
	}

	d.Model = values[0].Model
	others := make([]string, 0, len(values)-1)
	for _, v := range values[1:] {
		others = append(others, v.Value)
	}
	d.Description = fmt.Sprintf("Value of %s vs %s", values[0].Value, strings.Join(others, ", "))
	return d
}

func allNumeric(values []ModelValue) ([]float64, bool) {
	nums := make([]float64, len(values))
	for i, v := range values {
		n, ok := ParseNumeric(v.Value)
		if !ok {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// groupByCategory groups slots under their category name in first-seen
// order.
func groupByCategory(list []Specification) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, s := range list {
		i, ok := index[s.Category]
		if !ok {
			i = len(groups)
			index[s.Category] = i
			groups = append(groups, CategoryGroup{Name: s.Category, Specifications: []Specification{}})
		}
		groups[i].Specifications = append(groups[i].Specifications, s)
	}
	return groups
}
