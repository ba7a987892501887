// Package units maps raw datasheet unit spellings to canonical symbols.
package units

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnitType classifies what a unit measures.
type UnitType string

const (
	Temperature UnitType = "temperature"
	Resistance  UnitType = "resistance"
	Voltage     UnitType = "voltage"
	Current     UnitType = "current"
	Power       UnitType = "power"
	Time        UnitType = "time"
	Frequency   UnitType = "frequency"
	Capacitance UnitType = "capacitance"
	Inductance  UnitType = "inductance"
	Volume      UnitType = "volume"
	Magnetic    UnitType = "magnetic"
)

// UnitStandard is the canonical form of a unit.
type UnitStandard struct {
	Symbol  string
	Display string
	Type    UnitType
}

func std(symbol string, t UnitType) UnitStandard {
	return UnitStandard{Symbol: symbol, Display: symbol, Type: t}
}

// standardUnits is keyed by every spelling seen on datasheets. Canonical
// symbols are keys too so that standardized output maps to itself.
var standardUnits = map[string]UnitStandard{
	"°C": std("°C", Temperature),
	"°F": std("°F", Temperature),

	"Ω":    std("Ω", Resistance),
	"ohm":  std("Ω", Resistance),
	"ohms": std("Ω", Resistance),
	"Ohm":  std("Ω", Resistance),
	"Ohms": std("Ω", Resistance),

	"V":     std("V", Voltage),
	"VDC":   std("VDC", Voltage),
	"VAC":   std("VAC", Voltage),
	"Volts": std("V", Voltage),

	"A":    std("A", Current),
	"Amp":  std("A", Current),
	"Amps": std("A", Current),
	"mA":   std("mA", Current),

	"W":     std("W", Power),
	"Watt":  std("W", Power),
	"Watts": std("W", Power),

	"ms":           std("ms", Time),
	"msec":         std("ms", Time),
	"msecs":        std("ms", Time),
	"mSeconds":     std("ms", Time),
	"millisecond":  std("ms", Time),
	"milliseconds": std("ms", Time),
	"Milliseconds": std("ms", Time),
	"MILLISECONDS": std("ms", Time),

	"CC":                std("cc", Volume),
	"cc":                std("cc", Volume),
	"cubic centimeter":  std("cc", Volume),
	"cubic centimeters": std("cc", Volume),
	"CUBIC CENTIMETERS": std("cc", Volume),
	"Cubic Centimeters": std("cc", Volume),
	"Cubic centimeters": std("cc", Volume),

	"pF":         std("pF", Capacitance),
	"picofarad":  std("pF", Capacitance),
	"picofarads": std("pF", Capacitance),

	"mH":           std("mH", Inductance),
	"millihenry":   std("mH", Inductance),
	"millihenries": std("mH", Inductance),

	"AT":           std("AT", Magnetic),
	"Ampere Turn":  std("AT", Magnetic),
	"Ampere Turns": std("AT", Magnetic),
	"ampere turn":  std("AT", Magnetic),
	"ampere turns": std("AT", Magnetic),
	"AMPERE TURNS": std("AT", Magnetic),
}

// abbreviated suffixes; anything else is kept verbatim.
var suffixAbbrev = map[string]string{
	"maximum": "max",
	"minimum": "min",
	"nominal": "nom",
	"typical": "typ",
}

// Normalizer resolves raw unit strings against the canonical table.
type Normalizer struct {
	table  map[string]UnitStandard
	onMiss func(raw string)
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMissHook registers a callback for unit strings with no canonical match.
func WithMissHook(fn func(raw string)) Option {
	return func(n *Normalizer) {
		n.onMiss = fn
	}
}

// WithAliases adds extra spellings on top of the built-in table.
func WithAliases(aliases map[string]UnitStandard) Option {
	return func(n *Normalizer) {
		for k, v := range aliases {
			n.table[k] = v
		}
	}
}

// NewNormalizer creates a Normalizer over the built-in unit table.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{table: make(map[string]UnitStandard, len(standardUnits))}
	for k, v := range standardUnits {
		n.table[k] = v
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = NewNormalizer()

// Standardize normalizes raw with the built-in table.
func Standardize(raw string) string {
	return defaultNormalizer.Standardize(raw)
}

// Lookup finds the canonical unit for a base spelling, trying the exact
// text, then lower, upper, capitalized and title case.
func (n *Normalizer) Lookup(base string) (UnitStandard, bool) {
	for _, variant := range caseVariants(base) {
		if s, ok := n.table[variant]; ok {
			return s, true
		}
	}
	return UnitStandard{}, false
}

// Standardize returns the canonical display form of raw, e.g. "Ohms - maximum"
// becomes "Ω - max". Unknown units come back unchanged and an empty string
// means no unit.
func (n *Normalizer) Standardize(raw string) string {
	if raw == "" {
		return ""
	}

	base, suffix, _ := strings.Cut(raw, "-")
	base = strings.TrimSpace(base)
	suffix = strings.TrimSpace(suffix)

	standard, ok := n.Lookup(base)
	if !ok {
		if n.onMiss != nil {
			n.onMiss(raw)
		}
		return raw
	}

	if suffix == "" {
		return standard.Display
	}
	if abbrev, ok := suffixAbbrev[strings.ToLower(suffix)]; ok {
		return standard.Display + " - " + abbrev
	}
	return standard.Display + " - " + suffix
}

// FormatDisplay joins a value with its unit.
func FormatDisplay(value, unit string) string {
	if unit == "" {
		return value
	}
	return value + " " + unit
}

func caseVariants(s string) []string {
	// Casers are stateful, so each call gets its own.
	return []string{
		s,
		strings.ToLower(s),
		strings.ToUpper(s),
		capitalize(s),
		cases.Title(language.Und).String(s),
	}
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
