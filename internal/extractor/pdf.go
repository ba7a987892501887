package extractor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/observability"
)

// Region is a rectangle on the page in PDF points, origin at the top-left.
type Region struct {
	X0, Top, X1, Bottom float64
}

// Contains reports whether the box lies entirely within r.
func (r Region) Contains(x0, top, x1, bottom float64) bool {
	return x0 >= r.X0 && x1 <= r.X1 && top >= r.Top && bottom <= r.Bottom
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.X1 <= r.X0 || r.Bottom <= r.Top
}

// PDFConfig holds the fixed page layout of the datasheets.
type PDFConfig struct {
	FeaturesRegion   Region
	AdvantagesRegion Region
	DiagramRegion    Region
	// TableTop is the y offset below which text lines are treated as table rows.
	TableTop   float64
	DiagramDir string
}

// DefaultPDFConfig is the layout used by the relay datasheets.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		FeaturesRegion:   Region{0, 130, 295, 210},
		AdvantagesRegion: Region{300, 130, 610, 210},
		DiagramRegion:    Region{300, 0, 600, 120},
		TableTop:         210,
		DiagramDir:       "diagrams",
	}
}

const defaultPageHeight = 792

// PDFSource extracts the first page of a PDF datasheet.
type PDFSource struct {
	cfg      PDFConfig
	diagrams *DiagramRenderer
	logger   *observability.Logger
}

// NewPDFSource creates a PDFSource. Diagrams are rendered when cfg.DiagramDir
// is set.
func NewPDFSource(cfg PDFConfig, logger *observability.Logger) *PDFSource {
	if logger == nil {
		logger = observability.NopLogger()
	}
	s := &PDFSource{cfg: cfg, logger: logger}
	if cfg.DiagramDir != "" && !cfg.DiagramRegion.Empty() {
		s.diagrams = NewDiagramRenderer(cfg.DiagramDir, cfg.DiagramRegion)
	}
	return s
}

func (s *PDFSource) Extract(ctx context.Context, req Request) (*Output, error) {
	f, r, err := pdf.Open(req.Path)
	if err != nil {
		return nil, domain.ExtractionError("open PDF "+req.Path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return nil, domain.ExtractionError("PDF has no pages: "+req.Path, nil)
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return nil, domain.ExtractionError("PDF first page is empty: "+req.Path, nil)
	}

	glyphs, err := pageGlyphs(page)
	if err != nil {
		return nil, domain.ExtractionError("read PDF content "+req.Path, err)
	}
	height := pageHeight(page.V)
	lines := groupLines(glyphs, height)

	out := &Output{
		Tables:         s.tables(lines),
		FeaturesText:   regionText(lines, s.cfg.FeaturesRegion),
		AdvantagesText: regionText(lines, s.cfg.AdvantagesRegion),
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		s.logger.Debug().Err(err).Str("path", req.Path).Msg("plain text failed, using layout text")
		text = linesText(lines)
	}
	out.PageText = text

	if s.diagrams != nil && req.ModelNumber != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ref, err := s.diagrams.Render(req.Path, req.ModelNumber)
		if err != nil {
			// A missing diagram never fails extraction.
			s.logger.Warn().Err(err).Str("model", req.ModelNumber).Msg("diagram render failed")
		} else {
			out.DiagramRef = ref
		}
	}
	return out, nil
}

// pageGlyphs reads the positioned text of a page. The pdf package panics on
// some malformed content streams.
func pageGlyphs(page pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed content stream: %v", rec)
		}
	}()
	return page.Content().Text, nil
}

// pageHeight reads the MediaBox height, walking up inherited page attributes.
func pageHeight(v pdf.Value) float64 {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

type glyph struct {
	x0, x1, top, bottom float64
	size                float64
	s                   string
}

type textLine struct {
	top    float64
	glyphs []glyph
}

// segment is a run of glyphs separated from its neighbours by a wide gap.
type segment struct {
	x    float64
	text string
}

func groupLines(texts []pdf.Text, height float64) []textLine {
	glyphs := make([]glyph, 0, len(texts))
	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		glyphs = append(glyphs, glyph{
			x0:     t.X,
			x1:     t.X + t.W,
			top:    height - t.Y - size,
			bottom: height - t.Y,
			size:   size,
			s:      t.S,
		})
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		if math.Abs(glyphs[i].top-glyphs[j].top) > 1 {
			return glyphs[i].top < glyphs[j].top
		}
		return glyphs[i].x0 < glyphs[j].x0
	})

	var lines []textLine
	for _, g := range glyphs {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1].top-g.top) <= g.size/2 {
			lines[n-1].glyphs = append(lines[n-1].glyphs, g)
			continue
		}
		lines = append(lines, textLine{top: g.top, glyphs: []glyph{g}})
	}
	for i := range lines {
		sort.SliceStable(lines[i].glyphs, func(a, b int) bool {
			return lines[i].glyphs[a].x0 < lines[i].glyphs[b].x0
		})
	}
	return lines
}

// segments splits a line into column runs. Gaps wider than 1.5 em start a
// new run; narrower gaps become a single space.
func (l textLine) segments() []segment {
	var out []segment
	var b strings.Builder
	var start, prevEnd float64
	flush := func() {
		if text := strings.TrimSpace(b.String()); text != "" {
			out = append(out, segment{x: start, text: text})
		}
		b.Reset()
	}
	for i, g := range l.glyphs {
		if strings.TrimSpace(g.s) == "" {
			continue
		}
		gap := g.x0 - prevEnd
		switch {
		case i == 0 || b.Len() == 0:
			flush()
			start = g.x0
		case gap > 1.5*g.size:
			flush()
			start = g.x0
		case gap > 0.15*g.size:
			b.WriteByte(' ')
		}
		b.WriteString(g.s)
		prevEnd = g.x1
	}
	flush()
	return out
}

func (l textLine) text() string {
	segs := l.segments()
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

func linesText(lines []textLine) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.text())
	}
	return strings.Join(out, "\n")
}

// regionText returns the text of glyphs lying fully inside r, line by line.
func regionText(lines []textLine, r Region) string {
	if r.Empty() {
		return ""
	}
	var out []string
	for _, l := range lines {
		var kept textLine
		kept.top = l.top
		for _, g := range l.glyphs {
			if r.Contains(g.x0, g.top, g.x1, g.bottom) {
				kept.glyphs = append(kept.glyphs, g)
			}
		}
		if len(kept.glyphs) == 0 {
			continue
		}
		if t := kept.text(); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}

const columnTolerance = 10.0

// tables rebuilds the specification table from text positions: every line
// below TableTop with at least two column runs becomes a row, and run start
// offsets are clustered into shared column anchors.
func (s *PDFSource) tables(lines []textLine) []Table {
	var rows [][]segment
	for _, l := range lines {
		if l.top < s.cfg.TableTop {
			continue
		}
		if segs := l.segments(); len(segs) >= 2 {
			rows = append(rows, segs)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	anchors := columnAnchors(rows)
	table := make(Table, 0, len(rows))
	for _, segs := range rows {
		cells := make([]string, len(anchors))
		for _, seg := range segs {
			col := 0
			for i, a := range anchors {
				if a <= seg.x+columnTolerance {
					col = i
				}
			}
			if cells[col] != "" {
				cells[col] += " "
			}
			cells[col] += seg.text
		}
		table = append(table, cells)
	}
	return []Table{table}
}

func columnAnchors(rows [][]segment) []float64 {
	var xs []float64
	for _, segs := range rows {
		for _, seg := range segs {
			xs = append(xs, seg.x)
		}
	}
	sort.Float64s(xs)

	var anchors []float64
	for _, x := range xs {
		if n := len(anchors); n > 0 && x-anchors[n-1] <= columnTolerance {
			continue
		}
		anchors = append(anchors, x)
	}
	return anchors
}
