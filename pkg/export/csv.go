package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/klokku/timestudy/pkg/report"
	log "github.com/sirupsen/logrus"
)

// RenderCSV renders the flat table as CSV, header row first.
func RenderCSV(table report.Table) (string, error) {
	data := make([][]string, 0, len(table.Rows)+1)
	data = append(data, table.Columns)
	for _, row := range table.Rows {
		record := make([]string, 0, len(row))
		for _, cell := range row {
			record = append(record, cellToString(cell))
		}
		data = append(data, record)
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func cellToString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
