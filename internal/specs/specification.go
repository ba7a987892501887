package specs

import (
	"encoding/json"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/units"
)

// Specification is a single leaf value. An empty Unit means no unit.
type Specification struct {
	Value string
	Unit  string
}

// DisplayValue is the value formatted with its unit.
func (s Specification) DisplayValue() string {
	return units.FormatDisplay(s.Value, s.Unit)
}

type specificationJSON struct {
	Unit         *string `json:"unit"`
	Value        string  `json:"value"`
	DisplayValue string  `json:"display_value,omitempty"`
}

func (s Specification) MarshalJSON() ([]byte, error) {
	out := specificationJSON{Value: s.Value, DisplayValue: s.DisplayValue()}
	if s.Unit != "" {
		unit := s.Unit
		out.Unit = &unit
	}
	return json.Marshal(out)
}

// UnmarshalJSON ignores display_value; it is always derived.
func (s *Specification) UnmarshalJSON(data []byte) error {
	var in specificationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Value = in.Value
	s.Unit = ""
	if in.Unit != nil {
		s.Unit = *in.Unit
	}
	return nil
}
