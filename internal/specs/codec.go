package specs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/orderedjson"
)

func encodeSections(buf *bytes.Buffer, sections []*Section) error {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name()
	}
	return orderedjson.WriteObject(buf, names, func(i int) error {
		cats := sections[i].Categories()
		catNames := make([]string, len(cats))
		for j, c := range cats {
			catNames[j] = c.Name()
		}
		return orderedjson.WriteField(buf, "categories", func() error {
			return orderedjson.WriteObject(buf, catNames, func(j int) error {
				c := cats[j]
				return orderedjson.WriteField(buf, "subcategories", func() error {
					return orderedjson.WriteObject(buf, c.keys, func(k int) error {
						return orderedjson.WriteValue(buf, c.specs[c.keys[k]])
					})
				})
			})
		})
	})
}

func decodeSections(dec *json.Decoder, t *Tree) error {
	return orderedjson.ReadObject(dec, func(sectionName string) error {
		id := ParseSectionID(sectionName)
		t.section(id)
		return orderedjson.ReadField(dec, "categories", func() error {
			return orderedjson.ReadObject(dec, func(category string) error {
				t.Register(id, category)
				return orderedjson.ReadField(dec, "subcategories", func() error {
					return orderedjson.ReadObject(dec, func(sub string) error {
						var spec Specification
						if err := dec.Decode(&spec); err != nil {
							return fmt.Errorf("%s/%s/%s: %w", sectionName, category, sub, err)
						}
						t.Put(id, category, sub, spec)
						return nil
					})
				})
			})
		})
	})
}

// MarshalJSON encodes the document with sections in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"raw_text":`)
	if err := orderedjson.WriteValue(&buf, d.rawText); err != nil {
		return nil, err
	}
	buf.WriteString(`,"model_number":`)
	if d.modelNumber == "" {
		buf.WriteString("null")
	} else if err := orderedjson.WriteValue(&buf, d.modelNumber); err != nil {
		return nil, err
	}
	buf.WriteString(`,"pages":`)
	pages := d.pages
	if pages == nil {
		pages = []Page{}
	}
	if err := orderedjson.WriteValue(&buf, pages); err != nil {
		return nil, err
	}
	buf.WriteString(`,"sections":`)
	if err := encodeSections(&buf, d.tree.Sections()); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a document, preserving key order. Duplicate keys
// yield a validation error.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := orderedjson.NewDecoder(data)
	out := Document{tree: NewTree()}
	err := orderedjson.ReadObject(dec, func(key string) error {
		switch key {
		case "raw_text":
			return dec.Decode(&out.rawText)
		case "model_number":
			var mn *string
			if err := dec.Decode(&mn); err != nil {
				return err
			}
			if mn != nil {
				out.modelNumber = *mn
			}
			return nil
		case "pages":
			return dec.Decode(&out.pages)
		case "sections":
			return decodeSections(dec, out.tree)
		default:
			return orderedjson.Skip(dec)
		}
	})
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON encodes the tree as a sections object.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeSections(&buf, t.Sections()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
