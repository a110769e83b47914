package export

import (
	"context"
	"fmt"
	"os"

	"github.com/klokku/timestudy/pkg/report"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Published identifies a spreadsheet created in Google Sheets.
type Published struct {
	SpreadsheetId string
	Url           string
}

// SheetsPublisher uploads flat tables as new Google Sheets spreadsheets.
type SheetsPublisher struct {
	service *sheets.Service
}

func NewSheetsPublisher(ctx context.Context, opts ...option.ClientOption) (*SheetsPublisher, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsPublisher{service: service}, nil
}

// NewSheetsPublisherFromFile authenticates with a service account key file.
func NewSheetsPublisherFromFile(ctx context.Context, credentialsFile string) (*SheetsPublisher, error) {
	content, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read sheets credentials %s: %v", ErrMissingDependency, credentialsFile, err)
	}
	creds, err := google.CredentialsFromJSON(ctx, content, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sheets credentials: %v", ErrMissingDependency, err)
	}
	return NewSheetsPublisher(ctx, option.WithCredentials(creds))
}

func (p *SheetsPublisher) Publish(ctx context.Context, title string, table report.Table) (Published, error) {
	spreadsheet, err := p.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: tableSheet}},
		},
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("failed to create spreadsheet: %w", err)
		log.Error(err)
		return Published{}, err
	}

	values := make([][]interface{}, 0, len(table.Rows)+1)
	header := make([]interface{}, 0, len(table.Columns))
	for _, c := range table.Columns {
		header = append(header, c)
	}
	values = append(values, header)
	for _, row := range table.Rows {
		values = append(values, row)
	}

	_, err = p.service.Spreadsheets.Values.Update(
		spreadsheet.SpreadsheetId,
		tableSheet+"!A1",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("failed to write spreadsheet values: %w", err)
		log.Error(err)
		return Published{}, err
	}

	log.Infof("Published study table to spreadsheet %s", spreadsheet.SpreadsheetId)
	return Published{SpreadsheetId: spreadsheet.SpreadsheetId, Url: spreadsheet.SpreadsheetUrl}, nil
}
