package report

import (
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	"github.com/klokku/timestudy/pkg/summary"
)

// Table is a flat sheet: a header row of column names and value rows of the same width.
// Blank cells hold an empty string.
type Table struct {
	Columns []string
	Rows    [][]any
}

var FlatColumns = []string{
	"Tarih",
	"Makine",
	"Operatör",
	"Vardiya",
	"Etüt Başlangıç",
	"Etüt Bitiş",
	"Başlangıç Sayısı",
	"Bitiş Sayısı",
	"Üretim Süresi (dk)",
	"Mola (dk)",
	"Planlanan Üretim",
	"Gerçekleşen Üretim",
	"Duruş Türü",
	"Duruş Açıklaması",
	"Süre (sn)",
	"Süre (dk)",
}

// FlatTable repeats the session fields on one row per stoppage. A study without stoppages
// still yields exactly one row, with the stoppage cells left blank.
func FlatTable(s session.Session, events []stoppage.Event, sum summary.Summary) Table {
	sessionCells := []any{
		s.FormattedDate(),
		s.Machine,
		s.Operator,
		s.Shift,
		s.StartTime.String(),
		s.EndTime.String(),
		s.InitialCount,
		s.FinalCount,
		sum.SessionMinutes,
		s.BreakTime,
		sum.PlannedProduction,
		sum.ProducedUnits,
	}

	rows := make([][]any, 0, max(len(events), 1))
	if len(events) == 0 {
		rows = append(rows, withCells(sessionCells, "", "", "", ""))
	}
	for _, e := range events {
		rows = append(rows, withCells(sessionCells, e.Kind.String(), e.Description, e.DurationSeconds, e.DurationMinutes()))
	}

	return Table{Columns: FlatColumns, Rows: rows}
}

// FlatTableFromRecords accepts stoppages as loose records, such as those kept by older
// versions of the tool, and normalizes them before building the table.
func FlatTableFromRecords(s session.Session, records []map[string]any, sum summary.Summary) (Table, error) {
	events, err := stoppage.FromRecords(records)
	if err != nil {
		return Table{}, err
	}
	return FlatTable(s, events, sum), nil
}

func withCells(prefix []any, cells ...any) []any {
	row := make([]any, 0, len(prefix)+len(cells))
	row = append(row, prefix...)
	return append(row, cells...)
}
