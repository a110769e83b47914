package export

import (
	"fmt"
	"slices"

	"github.com/klokku/timestudy/pkg/report"
	"github.com/xuri/excelize/v2"
)

const tableSheet = "Etüt"

func writeTableXlsx(table report.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", tableSheet); err != nil {
		return err
	}

	header := make([]any, 0, len(table.Columns))
	for _, c := range table.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(tableSheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tableSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

type reportStyles struct {
	title       int
	section     int
	label       int
	value       int
	tableHeader int
	tableCell   int
}

func newReportStyles(f *excelize.File) (reportStyles, error) {
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	border := []excelize.Border{
		{Type: "left", Color: "888888", Style: 1},
		{Type: "right", Color: "888888", Style: 1},
		{Type: "top", Color: "888888", Style: 1},
		{Type: "bottom", Color: "888888", Style: 1},
	}

	var s reportStyles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: center}); err != nil {
		return s, err
	}
	if s.section, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}, Alignment: left}); err != nil {
		return s, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: left}); err != nil {
		return s, err
	}
	if s.value, err = f.NewStyle(&excelize.Style{Alignment: left}); err != nil {
		return s, err
	}
	if s.tableHeader, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: center,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.tableCell, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, err
	}
	return s, nil
}

// reportWriter places report sections top to bottom, one blank row after each block.
type reportWriter struct {
	f       *excelize.File
	sheet   string
	styles  reportStyles
	lastCol string
	row     int
}

func writeReportXlsx(r report.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, width := range r.ColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	styles, err := newReportStyles(f)
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(max(len(r.ColumnWidths), 7))
	if err != nil {
		return err
	}
	w := &reportWriter{f: f, sheet: sheet, styles: styles, lastCol: lastCol, row: 1}

	if err := w.mergedTitle(r.Title, styles.title); err != nil {
		return err
	}
	w.row++

	for _, section := range r.Sections {
		if err := w.section(section); err != nil {
			return fmt.Errorf("section %s: %w", section.Kind, err)
		}
		w.row++
	}

	return f.SaveAs(path)
}

func (w *reportWriter) section(s report.Section) error {
	if s.Title != "" {
		if err := w.mergedTitle(s.Title, w.styles.section); err != nil {
			return err
		}
	}

	if len(s.Header) > 0 {
		for c, h := range s.Header {
			if err := w.setCell(c, h, w.styles.tableHeader); err != nil {
				return err
			}
		}
		w.row++
		topLeft, err := excelize.CoordinatesToCellName(1, w.row)
		if err != nil {
			return err
		}
		if err := w.f.SetPanes(w.sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      w.row - 1,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	for _, row := range s.Rows {
		for c, value := range row {
			style := w.styles.value
			switch {
			case len(s.Header) > 0 && c < len(s.Header):
				style = w.styles.tableCell
			case slices.Contains(s.LabelColumns, c):
				style = w.styles.label
			}
			if err := w.setCell(c, value, style); err != nil {
				return err
			}
		}
		w.row++
	}
	return nil
}

func (w *reportWriter) mergedTitle(title string, style int) error {
	first, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	last := fmt.Sprintf("%s%d", w.lastCol, w.row)
	if err := w.f.MergeCell(w.sheet, first, last); err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.sheet, first, title); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, first, last, style); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *reportWriter) setCell(col int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col+1, w.row)
	if err != nil {
		return err
	}
	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, cell, cell, style)
}
