package comparison

import (
	"bytes"
	"encoding/json"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/features"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/orderedjson"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

// ModelValue is one model's value for a compared specification.
type ModelValue struct {
	Model string
	specs.Specification
}

// Specification is one (section, category, subcategory) slot across models.
// Values holds only the models that have the slot, in model order.
type Specification struct {
	Category       string
	Name           string
	Values         []ModelValue
	HasDifferences bool
}

// Value returns the value of model, if it has one.
func (s Specification) Value(model string) (specs.Specification, bool) {
	for _, v := range s.Values {
		if v.Model == model {
			return v.Specification, true
		}
	}
	return specs.Specification{}, false
}

func (s Specification) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"category":`)
	if err := orderedjson.WriteValue(&buf, s.Category); err != nil {
		return nil, err
	}
	buf.WriteString(`,"specification":`)
	if err := orderedjson.WriteValue(&buf, s.Name); err != nil {
		return nil, err
	}
	buf.WriteString(`,"values":`)
	models := make([]string, len(s.Values))
	for i, v := range s.Values {
		models[i] = v.Model
	}
	err := orderedjson.WriteObject(&buf, models, func(i int) error {
		return orderedjson.WriteValue(&buf, s.Values[i].Specification)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteString(`,"has_differences":`)
	if err := orderedjson.WriteValue(&buf, s.HasDifferences); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Specification) UnmarshalJSON(data []byte) error {
	dec := orderedjson.NewDecoder(data)
	var out Specification
	err := orderedjson.ReadObject(dec, func(key string) error {
		switch key {
		case "category":
			return dec.Decode(&out.Category)
		case "specification":
			return dec.Decode(&out.Name)
		case "has_differences":
			return dec.Decode(&out.HasDifferences)
		case "values":
			return orderedjson.ReadObject(dec, func(model string) error {
				v := ModelValue{Model: model}
				if err := dec.Decode(&v.Specification); err != nil {
					return err
				}
				out.Values = append(out.Values, v)
				return nil
			})
		default:
			return orderedjson.Skip(dec)
		}
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// CategoryGroup is one category of a response section. Specification
// sections fill Specifications; the features section fills Features.
type CategoryGroup struct {
	Name           string
	Specifications []Specification
	Features       []features.Feature
}

// Section is one section of the response, categories in first-seen order.
type Section struct {
	Name       string
	Categories []CategoryGroup
}

// Category returns the named group.
func (s Section) Category(name string) (CategoryGroup, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryGroup{}, false
}

// Difference describes one slot whose values differ between models. Its
// fields follow the established interchange names: Category holds the
// section name, Subcategory the category name and Specification the
// subcategory key.
type Difference struct {
	Model         string            `json:"model"`
	Category      string            `json:"category"`
	Subcategory   string            `json:"subcategory"`
	Specification string            `json:"specification"`
	Description   string            `json:"difference"`
	Unit          *string           `json:"unit"`
	Values        map[string]string `json:"values"`
}

// Response is the result of one comparison.
type Response struct {
	ModelNumbers     []string
	ComparisonID     string
	Sections         []Section
	DifferencesCount int
	Differences      []Difference
	// SkippedModels were requested but had no valid document.
	SkippedModels []string
}

// Section returns the named section.
func (r *Response) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

func (r *Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"model_numbers":`)
	if err := orderedjson.WriteValue(&buf, nonNil(r.ModelNumbers)); err != nil {
		return nil, err
	}
	buf.WriteString(`,"comparison_id":`)
	if err := orderedjson.WriteValue(&buf, r.ComparisonID); err != nil {
		return nil, err
	}
	buf.WriteString(`,"sections":`)
	if err := r.encodeSections(&buf); err != nil {
		return nil, err
	}
	buf.WriteString(`,"differences_count":`)
	if err := orderedjson.WriteValue(&buf, r.DifferencesCount); err != nil {
		return nil, err
	}
	buf.WriteString(`,"differences":`)
	diffs := r.Differences
	if diffs == nil {
		diffs = []Difference{}
	}
	if err := orderedjson.WriteValue(&buf, diffs); err != nil {
		return nil, err
	}
	if len(r.SkippedModels) > 0 {
		buf.WriteString(`,"skipped_models":`)
		if err := orderedjson.WriteValue(&buf, r.SkippedModels); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Response) encodeSections(buf *bytes.Buffer) error {
	names := make([]string, len(r.Sections))
	for i, s := range r.Sections {
		names[i] = s.Name
	}
	return orderedjson.WriteObject(buf, names, func(i int) error {
		cats := r.Sections[i].Categories
		catNames := make([]string, len(cats))
		for j, c := range cats {
			catNames[j] = c.Name
		}
		return orderedjson.WriteField(buf, "categories", func() error {
			return orderedjson.WriteObject(buf, catNames, func(j int) error {
				if cats[j].Features != nil {
					return orderedjson.WriteValue(buf, cats[j].Features)
				}
				return orderedjson.WriteValue(buf, nonNilSpecs(cats[j].Specifications))
			})
		})
	})
}

func (r *Response) UnmarshalJSON(data []byte) error {
	dec := orderedjson.NewDecoder(data)
	var out Response
	err := orderedjson.ReadObject(dec, func(key string) error {
		switch key {
		case "model_numbers":
			return dec.Decode(&out.ModelNumbers)
		case "comparison_id":
			return dec.Decode(&out.ComparisonID)
		case "differences_count":
			return dec.Decode(&out.DifferencesCount)
		case "differences":
			return dec.Decode(&out.Differences)
		case "skipped_models":
			return dec.Decode(&out.SkippedModels)
		case "sections":
			return orderedjson.ReadObject(dec, func(name string) error {
				section := Section{Name: name}
				err := orderedjson.ReadField(dec, "categories", func() error {
					return orderedjson.ReadObject(dec, func(cat string) error {
						group, err := decodeGroup(dec, name, cat)
						if err != nil {
							return err
						}
						section.Categories = append(section.Categories, group)
						return nil
					})
				})
				if err != nil {
					return err
				}
				out.Sections = append(out.Sections, section)
				return nil
			})
		default:
			return orderedjson.Skip(dec)
		}
	})
	if err != nil {
		return err
	}
	*r = out
	return nil
}

func decodeGroup(dec *json.Decoder, section, name string) (CategoryGroup, error) {
	group := CategoryGroup{Name: name}
	if section == specs.FeaturesAndAdvantagesName {
		group.Features = []features.Feature{}
		err := dec.Decode(&group.Features)
		return group, err
	}
	err := orderedjson.ReadArray(dec, func() error {
		var s Specification
		if err := dec.Decode(&s); err != nil {
			return err
		}
		group.Specifications = append(group.Specifications, s)
		return nil
	})
	return group, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSpecs(s []Specification) []Specification {
	if s == nil {
		return []Specification{}
	}
	return s
}
