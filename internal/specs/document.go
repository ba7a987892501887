package specs

import (
	"fmt"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// Page is one extracted page of a source document.
type Page struct {
	Number int          `json:"number"`
	Text   string       `json:"text"`
	Tables [][][]string `json:"tables"`
}

// Document is the specification tree of one model. It is read-only once
// built; rebuilding means running extraction again.
type Document struct {
	modelNumber string
	rawText     string
	pages       []Page
	tree        *Tree
}

// NewDocument snapshots tree and pages into a new document. An empty
// modelNumber means the model is unknown.
func NewDocument(modelNumber, rawText string, tree *Tree, pages []Page) *Document {
	if tree == nil {
		tree = NewTree()
	}
	return &Document{
		modelNumber: modelNumber,
		rawText:     rawText,
		pages:       append([]Page(nil), pages...),
		tree:        tree.Clone(),
	}
}

func (d *Document) ModelNumber() string { return d.modelNumber }

func (d *Document) RawText() string { return d.rawText }

func (d *Document) Pages() []Page { return append([]Page(nil), d.pages...) }

// Sections returns the document's sections in insertion order.
func (d *Document) Sections() []*Section { return d.tree.Sections() }

// Section returns a section by name.
func (d *Document) Section(name string) (*Section, bool) {
	return d.tree.Section(ParseSectionID(name))
}

// Specification returns the value at (section, category, subcategory). Pass
// an empty subcategory for categories without one.
func (d *Document) Specification(section, category, subcategory string) (Specification, bool) {
	return d.tree.Lookup(ParseSectionID(section), category, subcategory)
}

// SpecificationCount counts every stored specification, synthetic sections
// included.
func (d *Document) SpecificationCount() int { return d.tree.Len() }

// FeatureBlocks returns the raw features and advantages text, if present.
func (d *Document) FeatureBlocks() (features, advantages string) {
	id := Canonical(KindFeaturesAndAdvantages)
	if s, ok := d.tree.Lookup(id, FeaturesCategory, ""); ok {
		features = s.Value
	}
	if s, ok := d.tree.Lookup(id, AdvantagesCategory, ""); ok {
		advantages = s.Value
	}
	return features, advantages
}

// DiagramRef returns the stored diagram reference, if any.
func (d *Document) DiagramRef() (string, bool) {
	s, ok := d.tree.Lookup(Canonical(KindDiagram), "", "")
	return s.Value, ok
}

// Validate checks the structural invariants of the document.
func (d *Document) Validate() error {
	for _, s := range d.tree.Sections() {
		if s.Name() == "" {
			return domain.ValidationError("section with empty name", nil)
		}
		var err error
		switch s.ID().Kind {
		case KindFeaturesAndAdvantages:
			err = validateFeatureSection(s)
		case KindDiagram:
			err = validateDiagramSection(s)
		default:
			for _, c := range s.Categories() {
				if c.Name() == "" {
					err = fmt.Errorf("section %q has a category with empty name", s.Name())
					break
				}
			}
		}
		if err != nil {
			return domain.ValidationError(fmt.Sprintf("document %q is malformed", d.modelNumber), err)
		}
	}
	return nil
}

func validateFeatureSection(s *Section) error {
	for _, c := range s.Categories() {
		if c.Name() != FeaturesCategory && c.Name() != AdvantagesCategory {
			return fmt.Errorf("unexpected category %q in %s", c.Name(), s.Name())
		}
		if subs := c.Subcategories(); len(subs) != 1 || subs[0] != "" {
			return fmt.Errorf("category %q in %s must hold exactly one unnamed entry", c.Name(), s.Name())
		}
	}
	return nil
}

func validateDiagramSection(s *Section) error {
	cats := s.Categories()
	if len(cats) != 1 || cats[0].Name() != "" {
		return fmt.Errorf("%s must hold exactly one unnamed category", s.Name())
	}
	if subs := cats[0].Subcategories(); len(subs) != 1 || subs[0] != "" {
		return fmt.Errorf("%s must hold exactly one unnamed entry", s.Name())
	}
	return nil
}
