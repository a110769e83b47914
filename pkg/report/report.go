package report

import (
	"math"

	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	"github.com/klokku/timestudy/pkg/summary"
)

// reportColumns is the width of the header block rows.
const reportColumns = 7

const NoStoppage = "Duruş yok"

// Section is one block of the single page report. LabelColumns lists the zero based
// columns holding labels, Header is set only for tabular sections.
type Section struct {
	Kind         SectionKind
	Title        string
	Header       []string
	Rows         [][]any
	LabelColumns []int
}

type Report struct {
	Title        string
	SheetName    string
	ColumnWidths []float64
	Sections     []Section
}

// Build lays out the single page report in the order given by the layout.
func Build(s session.Session, events []stoppage.Event, sum summary.Summary, layout Layout) Report {
	r := Report{
		Title:        layout.Title,
		SheetName:    layout.SheetName,
		ColumnWidths: layout.ColumnWidths,
		Sections:     make([]Section, 0, len(layout.SectionOrder)),
	}
	for _, kind := range layout.SectionOrder {
		switch kind {
		case SectionHeader:
			r.Sections = append(r.Sections, headerSection(s))
		case SectionMetrics:
			r.Sections = append(r.Sections, metricsSection(sum))
		case SectionStoppages:
			r.Sections = append(r.Sections, stoppageSection(events))
		}
	}
	return r
}

// Section returns the section of the given kind, if the layout included it.
func (r Report) Section(kind SectionKind) (Section, bool) {
	for _, s := range r.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

func headerSection(s session.Session) Section {
	return Section{
		Kind: SectionHeader,
		Rows: [][]any{
			{"Operatör Adı", s.Operator, "Makine Adı / No", s.Machine, "Etüt Tarihi", s.FormattedDate(), ""},
			{"Vardiya", s.Shift, "Etüt Başlangıç", s.StartTime.String(), "Etüt Bitiş", s.EndTime.String(), ""},
			{"Etüt Öncesi Sayım", s.InitialCount, "Etüt Sonrası Sayım", s.FinalCount, "Toplam Mola (dk)", round2(s.BreakTime), ""},
			{"Birim Süresi (dk)", round2(s.UnitTime), "", "", "", "", ""},
		},
		LabelColumns: []int{0, 2, 4},
	}
}

type metric struct {
	label string
	value any
}

func metricsSection(sum summary.Summary) Section {
	metrics := []metric{
		{"Etüt Süresi (dk)", sum.SessionMinutes},
		{"Toplam Planlı Süre (dk)", sum.PlannedStopMinutes()},
		{"Toplam Plansız Süre (dk)", sum.UnplannedStopMinutes()},
		{"Toplam Duruş Süresi (dk)", sum.TotalStopMinutes()},
		{"Kapasite Kullanımı (%)", sum.UtilizationPct},
		{"Planlanan Üretim (adet)", sum.PlannedProduction},
		{"Gerçekleşen Üretim (adet)", sum.ProducedUnits},
		{"Gerçekleşme Oranı (%)", sum.PerformancePct},
	}

	// two label/value pairs per row, in columns A-B and D-E
	rows := make([][]any, 0, len(metrics)/2)
	for i := 0; i < len(metrics); i += 2 {
		left, right := metrics[i], metrics[i+1]
		rows = append(rows, []any{left.label, left.value, "", right.label, right.value})
	}
	return Section{
		Kind:         SectionMetrics,
		Title:        "Özet Göstergeler",
		Rows:         rows,
		LabelColumns: []int{0, 3},
	}
}

func stoppageSection(events []stoppage.Event) Section {
	rows := make([][]any, 0, max(len(events), 1))
	for _, e := range events {
		rows = append(rows, []any{e.Kind.String(), e.Description, e.DurationSeconds, e.DurationMinutes()})
	}
	if len(rows) == 0 {
		rows = append(rows, []any{"—", NoStoppage, "", ""})
	}
	return Section{
		Kind:   SectionStoppages,
		Title:  "Duruş Listesi",
		Header: []string{"Duruş Türü", "Duruş Açıklaması", "Süre (sn)", "Süre (dk)"},
		Rows:   rows,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
