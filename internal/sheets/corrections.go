package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// Correction is a manually edited row pulled back from the review sheet.
type Correction struct {
	Hash         string
	Description  string
	Vendor       string
	MainCategory string
	SubCategory  string
	Amount       float64
}

// Reader pulls corrected labels back from the review spreadsheet.
type Reader struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewReader creates a Google Sheets corrections reader.
func NewReader(ctx context.Context, config Config, logger *slog.Logger) (*Reader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required to read corrections")
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := newSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Reader{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// ReadCorrections fetches every data row that carries both category labels.
// Rows follow the writer's column layout; the header row is skipped.
func (r *Reader) ReadCorrections(ctx context.Context) ([]Correction, error) {
	resp, err := r.service.Spreadsheets.Values.
		Get(r.config.SpreadsheetID, reviewSheetTitle+"!A:I").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read review sheet: %w", err)
	}

	var corrections []Correction
	for i, row := range resp.Values {
		if i == 0 {
			continue
		}
		if len(row) < 7 {
			continue
		}

		correction := Correction{
			Hash:         cellString(row, 0),
			Description:  cellString(row, 2),
			Vendor:       cellString(row, 3),
			MainCategory: cellString(row, 5),
			SubCategory:  cellString(row, 6),
		}
		if correction.Hash == "" || correction.MainCategory == "" || correction.SubCategory == "" {
			continue
		}

		if amount := cellString(row, 4); amount != "" {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(amount, ",", ""), 64); err == nil {
				correction.Amount = v
			}
		}

		corrections = append(corrections, correction)
	}

	r.logger.Info("read corrections from sheet",
		"rows", len(resp.Values), "corrections", len(corrections))

	return corrections, nil
}

func cellString(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[idx]))
}
