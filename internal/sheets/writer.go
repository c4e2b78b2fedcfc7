package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/petgully/tally/internal/common"
	"github.com/petgully/tally/internal/model"
)

// reviewSheetTitle is the tab holding the exported transactions.
const reviewSheetTitle = "Transactions"

// reviewHeader is the column layout of the review sheet. The corrections
// reader depends on these positions.
var reviewHeader = []any{
	"Hash", "Date", "Description", "Vendor", "Amount",
	"Main Category", "Sub Category", "Source", "Confidence",
}

// Writer pushes categorized transactions to the review spreadsheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := newSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// Write replaces the review sheet's contents with the given classifications.
func (w *Writer) Write(ctx context.Context, classifications []model.Classification) error {
	w.logger.Info("starting sheet export", "classifications", len(classifications))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if err := common.WithRetry(ctx, func() error {
		return w.clearSheet(ctx, spreadsheetID)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := w.prepareRows(classifications)
	if err := common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	w.logger.Info("sheet export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// getOrCreateSpreadsheet verifies the configured spreadsheet or creates a
// new one with a Transactions tab.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: reviewSheetTitle,
				},
			},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.
		Clear(spreadsheetID, reviewSheetTitle+"!A:Z", &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (w *Writer) prepareRows(classifications []model.Classification) [][]any {
	values := make([][]any, 0, len(classifications)+1)
	values = append(values, reviewHeader)

	for i := range classifications {
		c := &classifications[i]
		values = append(values, []any{
			c.Transaction.Hash,
			c.Transaction.Date.Format("2006-01-02"),
			c.Transaction.Description,
			c.Vendor,
			c.Transaction.Amount,
			c.MainCategory,
			c.SubCategory,
			string(c.MainSource),
			c.Confidence,
		})
	}

	return values
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	valueRange := &sheets.ValueRange{Values: values}
	_, err := w.service.Spreadsheets.Values.
		Update(spreadsheetID, reviewSheetTitle+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
