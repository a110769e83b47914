package report

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidLayout = errors.New("invalid report layout")

type SectionKind string

const (
	SectionHeader    SectionKind = "header"
	SectionMetrics   SectionKind = "metrics"
	SectionStoppages SectionKind = "stoppages"
)

var allSections = []SectionKind{SectionHeader, SectionMetrics, SectionStoppages}

// Layout controls the presentation of the single page report. It carries no calculation.
type Layout struct {
	Title        string
	SheetName    string
	ColumnWidths []float64
	SectionOrder []SectionKind
}

func DefaultLayout() Layout {
	return Layout{
		Title:        "Zaman Etüdü Raporu",
		SheetName:    "Etüt Raporu",
		ColumnWidths: []float64{22, 18, 22, 18, 24, 18, 18},
		SectionOrder: slices.Clone(allSections),
	}
}

// NewLayout builds a layout from configuration values, keeping defaults for empty ones.
func NewLayout(title, sheetName string, widths []float64, order []string) (Layout, error) {
	layout := DefaultLayout()
	if title != "" {
		layout.Title = title
	}
	if sheetName != "" {
		layout.SheetName = sheetName
	}
	if len(widths) > 0 {
		for _, w := range widths {
			if w <= 0 {
				return Layout{}, fmt.Errorf("%w: column width %v", ErrInvalidLayout, w)
			}
		}
		layout.ColumnWidths = slices.Clone(widths)
	}
	if len(order) > 0 {
		sections := make([]SectionKind, 0, len(order))
		for _, name := range order {
			kind := SectionKind(name)
			if !slices.Contains(allSections, kind) {
				return Layout{}, fmt.Errorf("%w: unknown section %q", ErrInvalidLayout, name)
			}
			if slices.Contains(sections, kind) {
				return Layout{}, fmt.Errorf("%w: section %q listed twice", ErrInvalidLayout, name)
			}
			sections = append(sections, kind)
		}
		layout.SectionOrder = sections
	}
	return layout, nil
}

// Width is the number of columns the report spans.
func (l Layout) Width() int {
	return max(len(l.ColumnWidths), reportColumns)
}
