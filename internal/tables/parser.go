// Package tables turns extracted datasheet tables into specification trees.
package tables

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/units"
)

// Column positions in a specification row.
const (
	colCategory = iota
	colSubcategory
	colUnit
	colValue
)

// Parser classifies table rows into sections and categories.
type Parser struct {
	normalizer *units.Normalizer
	logger     *observability.Logger
}

// NewParser creates a Parser. A nil normalizer uses the built-in unit table.
func NewParser(normalizer *units.Normalizer, logger *observability.Logger) *Parser {
	if normalizer == nil {
		normalizer = units.NewNormalizer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Parser{normalizer: normalizer, logger: logger}
}

// accumulator is the state carried from one row to the next.
type accumulator struct {
	category   string
	section    specs.SectionID
	hasSection bool
}

// emission is what a single row contributes to the tree. A nil spec only
// registers the category.
type emission struct {
	section     specs.SectionID
	category    string
	subcategory string
	spec        *specs.Specification
}

// Parse folds the table rows into a specification tree. Feature/advantage
// tables yield an empty tree.
func (p *Parser) Parse(rows [][]string) *specs.Tree {
	tree := specs.NewTree()
	if len(rows) == 0 {
		return tree
	}
	if IsFeatureTable(rows) {
		p.logger.Debug().Msg("skipping features/advantages table")
		return tree
	}

	body := rows
	if !isDataRow(cleanRow(rows[0])) {
		body = rows[1:]
	}

	var acc accumulator
	for _, row := range body {
		var out *emission
		acc, out = p.reduce(acc, cleanRow(row))
		if out == nil {
			continue
		}
		if out.spec == nil {
			tree.Register(out.section, out.category)
		} else {
			tree.Put(out.section, out.category, out.subcategory, *out.spec)
		}
	}
	return tree
}

// reduce processes one cleaned row.
func (p *Parser) reduce(acc accumulator, row []string) (accumulator, *emission) {
	if isBlank(row) {
		return acc, nil
	}

	category := cell(row, colCategory)
	if category == "" {
		category = acc.category
	}
	if category == "" {
		p.logger.Debug().Strs("row", row).Msg("row without category")
		return acc, nil
	}

	section, ok := specs.InferSection(category)
	if !ok {
		section = specs.Canonical(specs.SpecificationKinds[0])
		if acc.hasSection {
			section = acc.section
		}
	}
	next := accumulator{category: category, section: section, hasSection: true}

	out := &emission{
		section:     section,
		category:    category,
		subcategory: cell(row, colSubcategory),
	}
	// A row with a value column always yields a specification, even when
	// the cell is blank; shorter rows only register their category.
	if len(row) > colValue {
		out.spec = &specs.Specification{
			Value: row[colValue],
			Unit:  p.normalizer.Standardize(row[colUnit]),
		}
	}
	return next, out
}

// IsFeatureTable reports whether the first row is the two-column
// Features/Advantages header.
func IsFeatureTable(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	first := cleanRow(rows[0])
	return len(first) == 2 &&
		strings.Contains(first[0], "Features") &&
		strings.Contains(first[1], "Advantages")
}

// FeatureColumns joins the non-empty cells below the header of a
// Features/Advantages table, one block per column.
func FeatureColumns(rows [][]string) (features, advantages string, ok bool) {
	if !IsFeatureTable(rows) {
		return "", "", false
	}
	var feat, adv []string
	for _, row := range rows[1:] {
		row = cleanRow(row)
		if v := cell(row, 0); v != "" {
			feat = append(feat, v)
		}
		if v := cell(row, 1); v != "" {
			adv = append(adv, v)
		}
	}
	return strings.Join(feat, "\n"), strings.Join(adv, "\n"), true
}

// isDataRow decides whether a first row carries data rather than column
// headers: at least three columns, a category, and a unit or value.
func isDataRow(row []string) bool {
	if len(row) < 3 || row[colCategory] == "" {
		return false
	}
	tail := row[len(row)-2:]
	return tail[0] != "" || tail[1] != ""
}

func cleanRow(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
