package extractor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOutput_IsEmpty(t *testing.T) {
	var nilOut *Output
	assert.True(t, nilOut.IsEmpty())
	assert.True(t, (&Output{PageText: "  \n"}).IsEmpty())
	assert.False(t, (&Output{Tables: []Table{{{"a"}}}}).IsEmpty())
	assert.False(t, (&Output{AdvantagesText: "• Long life"}).IsEmpty())
}

func TestJSONSource(t *testing.T) {
	want := Output{
		PageText:     "HSR-520R",
		Tables:       []Table{{{"Voltage", "", "V", "24"}}},
		FeaturesText: "• Sealed",
	}
	b, err := json.Marshal(want)
	require.NoError(t, err)
	path := writeFile(t, "HSR-520R.json", string(b))

	got, err := NewJSONSource().Extract(context.Background(), Request{Path: path})
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = NewJSONSource().Extract(context.Background(), Request{Path: writeFile(t, "bad.json", "{")})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExtraction))

	_, err = NewJSONSource().Extract(context.Background(), Request{Path: filepath.Join(t.TempDir(), "missing.json")})
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO))
}

func TestHTMLSource(t *testing.T) {
	path := writeFile(t, "HSR-540R.html", `<html><body>
<h1>HSR-540R</h1>
<div id="features"><h2>Features</h2><ul><li>Hermetically   sealed</li><li>Rhodium contacts</li></ul></div>
<div class="advantages"><ul><li>Long life</li></ul></div>
<table>
  <tr><th>Parameter</th><th></th><th>Unit</th><th>Value</th></tr>
  <tr><td>Voltage</td><td></td><td>V</td><td>24</td></tr>
  <tr><td></td><td>Max</td><td>V</td><td>30</td></tr>
</table>
<script>var x = 1;</script>
</body></html>`)

	out, err := NewHTMLSource().Extract(context.Background(), Request{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "• Hermetically sealed\n• Rhodium contacts", out.FeaturesText)
	assert.Equal(t, "• Long life", out.AdvantagesText)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, Table{
		{"Parameter", "", "Unit", "Value"},
		{"Voltage", "", "V", "24"},
		{"", "Max", "V", "30"},
	}, out.Tables[0])
	assert.Contains(t, out.PageText, "HSR-540R")
	assert.NotContains(t, out.PageText, "var x")
}

func TestXLSXSource(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Voltage", "", "V", "24"},
		{"", "Max", "V", "30"},
		{"Contact Material"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "HSR-600F.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	out, err := NewXLSXSource().Extract(context.Background(), Request{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, Table{
		{"Voltage", "", "V", "24"},
		{"", "Max", "V", "30"},
		{"Contact Material", "", "", ""},
	}, out.Tables[0])
	assert.Contains(t, out.PageText, "Voltage")
}

type stubExtractor struct {
	out *Output
	err error
}

func (s stubExtractor) Extract(context.Context, Request) (*Output, error) {
	return s.out, s.err
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(stubExtractor{out: &Output{PageText: "ok"}}, ".PDF", ".json")

	assert.Equal(t, []string{".json", ".pdf"}, r.Extensions())
	assert.True(t, r.Supports("/data/HSR-520R.pdf"))
	assert.False(t, r.Supports("/data/HSR-520R.docx"))

	out, err := r.Extract(context.Background(), Request{Path: "/data/HSR-520R.Pdf"})
	require.NoError(t, err)
	assert.Equal(t, "HSR-520R.Pdf", out.SourceName)

	_, err = r.Extract(context.Background(), Request{Path: "notes.txt"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExtraction))
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(DefaultPDFConfig(), nil)
	assert.Equal(t, []string{".htm", ".html", ".json", ".pdf", ".xlsm", ".xlsx"}, r.Extensions())
}

func TestRegion(t *testing.T) {
	r := Region{0, 130, 295, 210}
	assert.True(t, r.Contains(10, 140, 100, 150))
	assert.False(t, r.Contains(10, 120, 100, 150))
	assert.False(t, r.Contains(290, 140, 300, 150))
	assert.False(t, r.Empty())
	assert.True(t, Region{}.Empty())
}

// word lays out s as one glyph per rune starting at x on baseline y.
func word(s string, x, y float64) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{FontSize: 10, X: x, Y: y, W: 5, S: string(r)})
		x += 5
	}
	return out
}

func TestLayout_LinesAndSegments(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, word("Max", 100, 500)...)
	texts = append(texts, word("Voltage", 10, 500)...)
	texts = append(texts, word("Top", 10, 700)...)

	lines := groupLines(texts, 792)
	require.Len(t, lines, 2)
	assert.Equal(t, "Top", lines[0].text())

	segs := lines[1].segments()
	require.Len(t, segs, 2)
	assert.Equal(t, segment{x: 10, text: "Voltage"}, segs[0])
	assert.Equal(t, segment{x: 100, text: "Max"}, segs[1])
}

func TestLayout_WordSpacing(t *testing.T) {
	texts := append(word("Long", 10, 600), word("life", 33, 600)...)
	lines := groupLines(texts, 792)
	require.Len(t, lines, 1)
	assert.Equal(t, "Long life", lines[0].text())
}

func TestLayout_RegionText(t *testing.T) {
	// Baseline 640 on a 792pt page puts glyph tops at 142.
	var texts []pdf.Text
	texts = append(texts, word("Features", 10, 640)...)
	texts = append(texts, word("Advantages", 310, 640)...)
	texts = append(texts, word("•Sealed", 10, 625)...)
	texts = append(texts, word("Footer", 10, 100)...)

	lines := groupLines(texts, 792)
	cfg := DefaultPDFConfig()
	assert.Equal(t, "Features\n•Sealed", regionText(lines, cfg.FeaturesRegion))
	assert.Equal(t, "Advantages", regionText(lines, cfg.AdvantagesRegion))
	assert.Empty(t, regionText(lines, Region{}))
}

func TestLayout_Tables(t *testing.T) {
	var texts []pdf.Text
	// Above TableTop: ignored.
	texts = append(texts, word("Features", 10, 640)...)
	texts = append(texts, word("Advantages", 310, 640)...)
	// Table rows, baseline 500 and 480.
	texts = append(texts, word("Voltage", 10, 500)...)
	texts = append(texts, word("V", 200, 500)...)
	texts = append(texts, word("24", 300, 500)...)
	texts = append(texts, word("Max", 100, 480)...)
	texts = append(texts, word("V", 202, 480)...)
	texts = append(texts, word("30", 300, 480)...)
	// Single-run heading inside the table area: ignored.
	texts = append(texts, word("Notes", 10, 460)...)

	src := NewPDFSource(PDFConfig{TableTop: 210}, nil)
	tables := src.tables(groupLines(texts, 792))
	require.Len(t, tables, 1)
	assert.Equal(t, Table{
		{"Voltage", "", "V", "24"},
		{"", "Max", "V", "30"},
	}, tables[0])
}

func TestDiagramRenderer_ReusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	d := NewDiagramRenderer(dir, DefaultPDFConfig().DiagramRegion)
	existing := d.Path("520R")
	require.NoError(t, os.WriteFile(existing, []byte("png"), 0o644))

	ref, err := d.Render("/does/not/exist.pdf", "520R")
	require.NoError(t, err)
	assert.Equal(t, existing, ref)
}
