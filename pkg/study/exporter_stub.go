package study

import (
	"context"
	"fmt"

	"github.com/klokku/timestudy/pkg/export"
	"github.com/klokku/timestudy/pkg/report"
)

type ExporterStub struct {
	Tables  []report.Table
	Reports []report.Report
	Err     error
}

func NewExporterStub() *ExporterStub {
	return &ExporterStub{}
}

func (s *ExporterStub) WriteTable(table report.Table) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.Tables = append(s.Tables, table)
	return fmt.Sprintf("/exports/etut_raporu_%d.xlsx", len(s.Tables)), nil
}

func (s *ExporterStub) WriteReport(r report.Report) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.Reports = append(s.Reports, r)
	return fmt.Sprintf("/exports/etut_raporu_pretty_%d.xlsx", len(s.Reports)), nil
}

func (s *ExporterStub) Locate(name string) (string, error) {
	if name == "etut_raporu_1.xlsx" && len(s.Tables) > 0 {
		return "/exports/" + name, nil
	}
	return "", fmt.Errorf("%w: %q", export.ErrExportNotFound, name)
}

func (s *ExporterStub) Cleanup() {
	s.Tables = nil
	s.Reports = nil
	s.Err = nil
}

type PublisherStub struct {
	Titles []string
	Tables []report.Table
}

func (s *PublisherStub) Publish(ctx context.Context, title string, table report.Table) (export.Published, error) {
	s.Titles = append(s.Titles, title)
	s.Tables = append(s.Tables, table)
	return export.Published{
		SpreadsheetId: "sheet-1",
		Url:           "https://docs.google.com/spreadsheets/d/sheet-1",
	}, nil
}
