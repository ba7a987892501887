// Package specs holds the hierarchical specification model built from a
// datasheet: sections contain categories, categories contain subcategory
// specifications.
package specs

import "strings"

// SectionKind is the closed set of section variants the pipeline knows about.
type SectionKind int

const (
	KindOther SectionKind = iota
	KindElectrical
	KindMagnetic
	KindPhysical
	KindFeaturesAndAdvantages
	KindDiagram
)

// Canonical section names, as they appear in documents and responses.
const (
	ElectricalName            = "electrical specifications"
	MagneticName              = "magnetic specifications"
	PhysicalName              = "physical/operational specifications"
	FeaturesAndAdvantagesName = "Features_And_Advantages"
	DiagramName               = "Diagram"
)

// Category names of the Features_And_Advantages section.
const (
	FeaturesCategory   = "features"
	AdvantagesCategory = "advantages"
)

var kindNames = map[SectionKind]string{
	KindElectrical:            ElectricalName,
	KindMagnetic:              MagneticName,
	KindPhysical:              PhysicalName,
	KindFeaturesAndAdvantages: FeaturesAndAdvantagesName,
	KindDiagram:               DiagramName,
}

// SpecificationKinds are the sections produced from specification tables, in
// their canonical order.
var SpecificationKinds = []SectionKind{KindElectrical, KindMagnetic, KindPhysical}

// SectionID identifies a section. Label is only meaningful for KindOther.
type SectionID struct {
	Kind  SectionKind
	Label string
}

// Canonical returns the ID of a known section kind.
func Canonical(kind SectionKind) SectionID {
	return SectionID{Kind: kind}
}

// Other returns the ID of a section outside the known set.
func Other(label string) SectionID {
	return SectionID{Kind: KindOther, Label: label}
}

// ParseSectionID maps a section name back to its ID.
func ParseSectionID(name string) SectionID {
	for kind, n := range kindNames {
		if n == name {
			return Canonical(kind)
		}
	}
	return Other(name)
}

func (id SectionID) String() string {
	if id.Kind == KindOther {
		return id.Label
	}
	return kindNames[id.Kind]
}

// IsSynthetic reports whether the section is not a specification section.
func (id SectionID) IsSynthetic() bool {
	return id.Kind == KindFeaturesAndAdvantages || id.Kind == KindDiagram
}

var sectionKeywords = []struct {
	kind     SectionKind
	keywords []string
}{
	{KindElectrical, []string{"power", "voltage", "current", "resistance", "capacitance", "temperature", "electrical"}},
	{KindMagnetic, []string{"pull - in", "pull-in", "test coil", "magnetic"}},
	{KindPhysical, []string{"capsule", "contact material", "operate time", "release time", "physical", "operational"}},
}

// InferSection matches a category label against the per-section keyword
// lists. ok is false when no keyword matches.
func InferSection(category string) (SectionID, bool) {
	lower := strings.ToLower(category)
	for _, group := range sectionKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return Canonical(group.kind), true
			}
		}
	}
	return SectionID{}, false
}
