package extractor

import (
	"context"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// HTMLSource reads datasheets published as HTML. Every <table> becomes a
// table; lists inside elements whose id or class mentions "features" or
// "advantages" supply the bullet blocks.
type HTMLSource struct{}

func NewHTMLSource() *HTMLSource {
	return &HTMLSource{}
}

func (s *HTMLSource) Extract(_ context.Context, req Request) (*Output, error) {
	f, err := os.Open(req.Path)
	if err != nil {
		return nil, domain.IOError("open HTML "+req.Path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, domain.ExtractionError("parse HTML "+req.Path, err)
	}
	doc.Find("script, style, noscript").Remove()

	out := &Output{
		FeaturesText:   bulletBlock(doc, "features"),
		AdvantagesText: bulletBlock(doc, "advantages"),
	}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if t := htmlTable(table); len(t) > 0 {
			out.Tables = append(out.Tables, t)
		}
	})
	out.PageText = strings.TrimSpace(collapseSpace(doc.Find("body").Text()))
	return out, nil
}

func htmlTable(table *goquery.Selection) Table {
	var t Table
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, collapseSpace(cell.Text()))
		})
		if len(row) > 0 {
			t = append(t, row)
		}
	})
	return t
}

func bulletBlock(doc *goquery.Document, name string) string {
	sel := doc.Find("#" + name + ", ." + name).First()
	if sel.Length() == 0 {
		return ""
	}
	var lines []string
	sel.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := collapseSpace(li.Text()); text != "" {
			lines = append(lines, "• "+text)
		}
	})
	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
