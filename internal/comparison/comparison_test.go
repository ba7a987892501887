package comparison

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

var electrical = specs.Canonical(specs.KindElectrical)

type entry struct {
	section     specs.SectionID
	category    string
	subcategory string
	value       string
	unit        string
}

func newDoc(model string, entries ...entry) *specs.Document {
	tree := specs.NewTree()
	for _, e := range entries {
		tree.Put(e.section, e.category, e.subcategory, specs.Specification{Value: e.value, Unit: e.unit})
	}
	return specs.NewDocument(model, "", tree, nil)
}

func voltage(v string) entry {
	return entry{electrical, "Coil Voltage", "Nominal", v, "V"}
}

func fixedComparator() *Comparator {
	return NewComparator(observability.NopLogger(), WithIDGenerator(func() string { return "cmp-1" }))
}

func TestCompare_NumericDifference(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("24")),
		"B": newDoc("B", voltage("30")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)

	require.Len(t, resp.Differences, 1)
	assert.Equal(t, 1, resp.DifferencesCount)
	d := resp.Differences[0]
	assert.Equal(t, "B", d.Model)
	assert.Equal(t, "Value of 30.0 vs 24.0", d.Description)
	assert.Equal(t, specs.ElectricalName, d.Category)
	assert.Equal(t, "Coil Voltage", d.Subcategory)
	assert.Equal(t, "Nominal", d.Specification)
	require.NotNil(t, d.Unit)
	assert.Equal(t, "V", *d.Unit)
	assert.Equal(t, map[string]string{"A": "24", "B": "30"}, d.Values)

	assert.Equal(t, []string{"A", "B"}, resp.ModelNumbers)
	assert.Equal(t, "cmp-1", resp.ComparisonID)
	assert.Empty(t, resp.SkippedModels)
}

func TestCompare_IdenticalValues(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("24")),
		"B": newDoc("B", voltage("24")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	assert.Zero(t, resp.DifferencesCount)
	assert.Empty(t, resp.Differences)

	section, ok := resp.Section(specs.ElectricalName)
	require.True(t, ok)
	group, ok := section.Category("Coil Voltage")
	require.True(t, ok)
	require.Len(t, group.Specifications, 1)
	spec := group.Specifications[0]
	assert.False(t, spec.HasDifferences)
	assert.Equal(t, "Nominal", spec.Name)
	v, ok := spec.Value("B")
	require.True(t, ok)
	assert.Equal(t, "24 V", v.DisplayValue())
}

func TestCompare_OneOutlierAmongMany(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("12")),
		"B": newDoc("B", voltage("12")),
		"C": newDoc("C", voltage("-48")),
		"D": newDoc("D", voltage("12")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B", "C", "D"})
	require.NoError(t, err)
	require.Len(t, resp.Differences, 1)
	d := resp.Differences[0]
	assert.Equal(t, "C", d.Model)
	assert.Equal(t, "Value of 12.0 vs -48.0", d.Description)
	assert.Len(t, d.Values, 4)
}

func TestCompare_NumericTieKeepsFirstModel(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("-5")),
		"B": newDoc("B", voltage("5")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, resp.Differences, 1)
	assert.Equal(t, "A", resp.Differences[0].Model)
	assert.Equal(t, "Value of 5.0 vs -5.0", resp.Differences[0].Description)
}

func TestCompare_NonNumericReportsFirstModel(t *testing.T) {
	material := func(v string) entry {
		return entry{specs.Canonical(specs.KindPhysical), "Contact", "Material", v, ""}
	}
	docs := map[string]*specs.Document{
		"A": newDoc("A", material("AgSnO2")),
		"B": newDoc("B", material("AgNi")),
		"C": newDoc("C", material("AgSnO2")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, resp.Differences, 1)
	d := resp.Differences[0]
	assert.Equal(t, "A", d.Model)
	assert.Equal(t, "Value of AgSnO2 vs AgNi, AgSnO2", d.Description)
	assert.Nil(t, d.Unit)
}

func TestCompare_BlankValueDiffers(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("")),
		"B": newDoc("B", voltage("10")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, resp.Differences, 1)
	d := resp.Differences[0]
	assert.Equal(t, "A", d.Model)
	assert.Equal(t, "Value of  vs 10", d.Description)
	assert.Equal(t, map[string]string{"A": "", "B": "10"}, d.Values)

	section, ok := resp.Section(specs.ElectricalName)
	require.True(t, ok)
	group, ok := section.Category("Coil Voltage")
	require.True(t, ok)
	require.Len(t, group.Specifications, 1)
	assert.True(t, group.Specifications[0].HasDifferences)
	v, ok := group.Specifications[0].Value("A")
	require.True(t, ok)
	assert.Equal(t, " V", v.DisplayValue())
}

func TestCompare_MixedValuesAreNotNumeric(t *testing.T) {
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("24")),
		"B": newDoc("B", voltage("24 DC")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, resp.Differences, 1)
	assert.Equal(t, "A", resp.Differences[0].Model)
	assert.Equal(t, "Value of 24 vs 24 DC", resp.Differences[0].Description)
}

func TestCompare_UnionInFirstSeenOrder(t *testing.T) {
	magnetic := specs.Canonical(specs.KindMagnetic)
	docs := map[string]*specs.Document{
		"A": newDoc("A",
			entry{electrical, "Coil Voltage", "Nominal", "24", "V"},
			entry{electrical, "Coil Resistance", "", "120", "Ω"},
		),
		"B": newDoc("B",
			entry{magnetic, "Pull-In", "AT", "10", "AT"},
			entry{electrical, "Coil Voltage", "Maximum", "30", "V"},
			entry{electrical, "Coil Voltage", "Nominal", "24", "V"},
		),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)

	var names []string
	for _, s := range resp.Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{specs.ElectricalName, specs.MagneticName}, names)

	section, _ := resp.Section(specs.ElectricalName)
	require.Len(t, section.Categories, 2)
	voltageGroup := section.Categories[0]
	assert.Equal(t, "Coil Voltage", voltageGroup.Name)
	require.Len(t, voltageGroup.Specifications, 2)
	assert.Equal(t, "Nominal", voltageGroup.Specifications[0].Name)
	assert.Equal(t, "Maximum", voltageGroup.Specifications[1].Name)
	assert.Equal(t, "Coil Resistance", section.Categories[1].Name)

	maximum := voltageGroup.Specifications[1]
	require.Len(t, maximum.Values, 1)
	assert.Equal(t, "B", maximum.Values[0].Model)
	assert.False(t, maximum.HasDifferences)
	assert.Zero(t, resp.DifferencesCount)
}

func TestCompare_FeaturesMerged(t *testing.T) {
	fa := specs.Canonical(specs.KindFeaturesAndAdvantages)
	docs := map[string]*specs.Document{
		"A": newDoc("A",
			entry{fa, specs.FeaturesCategory, "", "• Compact\n• Sealed", ""},
			voltage("24"),
		),
		"B": newDoc("B",
			entry{fa, specs.FeaturesCategory, "", "• Sealed", ""},
			voltage("24"),
		),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Sections)
	first := resp.Sections[0]
	assert.Equal(t, specs.FeaturesAndAdvantagesName, first.Name)
	require.Len(t, first.Categories, 1)
	group := first.Categories[0]
	assert.Equal(t, specs.FeaturesCategory, group.Name)
	require.Len(t, group.Features, 2)
	assert.Equal(t, "• Compact", group.Features[0].Text)
	assert.Equal(t, map[string]bool{"A": true, "B": false}, group.Features[0].Models)
	assert.Equal(t, "• Sealed", group.Features[1].Text)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, group.Features[1].Models)
}

func TestCompare_NoFeatureSectionWithoutItems(t *testing.T) {
	diagram := specs.Canonical(specs.KindDiagram)
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("24"), entry{diagram, "", "", "diagrams/A.png", ""}),
		"B": newDoc("B", voltage("24")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, specs.ElectricalName, resp.Sections[0].Name)
}

func TestCompare_Preconditions(t *testing.T) {
	docs := map[string]*specs.Document{"A": newDoc("A", voltage("24"))}

	_, err := fixedComparator().Compare(docs, []string{"A"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypePrecondition))

	_, err = fixedComparator().Compare(docs, []string{"A", "missing"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypePrecondition))
}

func TestCompare_SkipsMissingAndInvalid(t *testing.T) {
	fa := specs.Canonical(specs.KindFeaturesAndAdvantages)
	docs := map[string]*specs.Document{
		"A":   newDoc("A", voltage("24")),
		"B":   newDoc("B", voltage("30")),
		"BAD": newDoc("BAD", entry{fa, "bogus", "", "x", ""}),
	}

	resp, err := fixedComparator().Compare(docs, []string{"A", "BAD", "B", "GONE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, resp.ModelNumbers)
	assert.Equal(t, []string{"BAD", "GONE"}, resp.SkippedModels)
	assert.Equal(t, 1, resp.DifferencesCount)
}

func TestCompare_DoesNotMutateDocuments(t *testing.T) {
	a := newDoc("A", voltage("24"))
	b := newDoc("B", voltage("30"))
	before, err := json.Marshal(a)
	require.NoError(t, err)

	_, err = fixedComparator().Compare(map[string]*specs.Document{"A": a, "B": b}, []string{"A", "B"})
	require.NoError(t, err)

	after, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestCompare_RecordsMetrics(t *testing.T) {
	m := observability.NewMetrics()
	c := NewComparator(observability.NopLogger(), WithMetrics(m))
	docs := map[string]*specs.Document{
		"A": newDoc("A", voltage("24")),
		"B": newDoc("B", voltage("30")),
	}

	resp, err := c.Compare(docs, []string{"A", "B"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ComparisonID)

	_, err = c.Compare(docs, []string{"A"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Comparisons.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Comparisons.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DifferencesFound))
}

func TestResponse_JSON(t *testing.T) {
	fa := specs.Canonical(specs.KindFeaturesAndAdvantages)
	docs := map[string]*specs.Document{
		"B": newDoc("B",
			entry{fa, specs.AdvantagesCategory, "", "• Long life", ""},
			voltage("30"),
			entry{electrical, "Coil Resistance", "", "120", "Ω"},
		),
		"A": newDoc("A", voltage("24")),
	}

	resp, err := fixedComparator().Compare(docs, []string{"B", "A"})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, []interface{}{"B", "A"}, generic["model_numbers"])
	assert.Equal(t, "cmp-1", generic["comparison_id"])
	assert.Equal(t, 1.0, generic["differences_count"])
	assert.NotContains(t, generic, "skipped_models")

	sections := generic["sections"].(map[string]interface{})
	elec := sections[specs.ElectricalName].(map[string]interface{})
	cats := elec["categories"].(map[string]interface{})
	list := cats["Coil Voltage"].([]interface{})
	require.Len(t, list, 1)
	spec := list[0].(map[string]interface{})
	assert.Equal(t, "Nominal", spec["specification"])
	assert.Equal(t, true, spec["has_differences"])
	values := spec["values"].(map[string]interface{})
	assert.Equal(t, "30 V", values["B"].(map[string]interface{})["display_value"])

	var decoded Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	again, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))

	adv, ok := decoded.Section(specs.FeaturesAndAdvantagesName)
	require.True(t, ok)
	group, ok := adv.Category(specs.AdvantagesCategory)
	require.True(t, ok)
	require.Len(t, group.Features, 1)
	assert.Equal(t, "• Long life", group.Features[0].Text)
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"24", 24, true},
		{"-3.5", -3.5, true},
		{"+.5", 0.5, true},
		{"1e3", 1000, true},
		{"12.", 12, true},
		{"1.2.3", 0, false},
		{" 24", 0, false},
		{"24V", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1e999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumeric(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{30, "30.0"},
		{-48, "-48.0"},
		{2.5, "2.5"},
		{0, "0.0"},
		{1e16, "1e+16"},
		{0.000015, "1.5e-05"},
		{0.0001, "0.0001"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}
