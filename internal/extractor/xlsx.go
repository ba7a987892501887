package extractor

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/domain"
)

// XLSXSource reads a workbook where every sheet is one table.
type XLSXSource struct{}

func NewXLSXSource() *XLSXSource {
	return &XLSXSource{}
}

func (s *XLSXSource) Extract(_ context.Context, req Request) (*Output, error) {
	f, err := excelize.OpenFile(req.Path)
	if err != nil {
		return nil, domain.ExtractionError("open workbook "+req.Path, err)
	}
	defer f.Close()

	out := &Output{}
	var text strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, domain.ExtractionError("read sheet "+sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		out.Tables = append(out.Tables, padRows(rows))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteByte('\n')
		}
	}
	out.PageText = strings.TrimSpace(text.String())
	return out, nil
}

// padRows gives every row the same width; GetRows trims trailing blanks.
func padRows(rows [][]string) Table {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	out := make(Table, len(rows))
	for i, r := range rows {
		out[i] = make([]string, width)
		copy(out[i], r)
	}
	return out
}
