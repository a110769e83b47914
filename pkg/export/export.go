package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klokku/timestudy/internal/utils"
	"github.com/klokku/timestudy/pkg/report"
	log "github.com/sirupsen/logrus"
)

// ErrMissingDependency is returned when an optional export target is requested but its
// backing service was not configured.
var ErrMissingDependency = errors.New("export target is not available")
var ErrExportNotFound = errors.New("exported file not found")

const (
	tablePrefix     = "etut_raporu_"
	reportPrefix    = "etut_raporu_pretty_"
	timestampLayout = "20060102_150405"
	xlsxExtension   = ".xlsx"
)

// Exporter writes report shapes as spreadsheet files under one output directory.
type Exporter struct {
	outputDir string
	clock     utils.Clock
}

func NewExporter(outputDir string, clock utils.Clock) *Exporter {
	return &Exporter{outputDir: outputDir, clock: clock}
}

// WriteTable saves the flat table and returns the path of the new file.
func (e *Exporter) WriteTable(table report.Table) (string, error) {
	path, err := e.newPath(tablePrefix)
	if err != nil {
		return "", err
	}
	if err := writeTableXlsx(table, path); err != nil {
		log.Errorf("failed to write table export %s: %v", path, err)
		return "", err
	}
	log.Infof("Exported study table to %s", path)
	return path, nil
}

// WriteReport saves the single page report and returns the path of the new file.
func (e *Exporter) WriteReport(r report.Report) (string, error) {
	path, err := e.newPath(reportPrefix)
	if err != nil {
		return "", err
	}
	if err := writeReportXlsx(r, path); err != nil {
		log.Errorf("failed to write report export %s: %v", path, err)
		return "", err
	}
	log.Infof("Exported study report to %s", path)
	return path, nil
}

// Locate resolves the name of a previously exported file to its path. Only plain file
// names inside the output directory are accepted.
func (e *Exporter) Locate(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, xlsxExtension) {
		return "", fmt.Errorf("%w: %q", ErrExportNotFound, name)
	}
	path := filepath.Join(e.outputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrExportNotFound, name)
	}
	return path, nil
}

func (e *Exporter) newPath(prefix string) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := prefix + e.clock.Now().Format(timestampLayout) + xlsxExtension
	return filepath.Join(e.outputDir, name), nil
}
