package csvio

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/petgully/tally/internal/model"
)

// classifiedRow is the output CSV layout for categorized transactions.
type classifiedRow struct {
	Date         string  `csv:"Date"`
	Description  string  `csv:"Description"`
	Vendor       string  `csv:"Vendor"`
	Amount       float64 `csv:"Amount"`
	MainCategory string  `csv:"Main Category"`
	SubCategory  string  `csv:"Sub Category"`
	Source       string  `csv:"Source"`
	Confidence   float64 `csv:"Confidence"`
}

// WriteClassified writes categorized transactions as CSV.
func WriteClassified(w io.Writer, classified []model.Classification) error {
	rows := make([]*classifiedRow, 0, len(classified))
	for i := range classified {
		c := &classified[i]
		rows = append(rows, &classifiedRow{
			Date:         c.Transaction.Date.Format("2006-01-02"),
			Description:  c.Transaction.Description,
			Vendor:       c.Vendor,
			Amount:       c.Transaction.Amount,
			MainCategory: c.MainCategory,
			SubCategory:  c.SubCategory,
			Source:       string(c.MainSource),
			Confidence:   c.Confidence,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write classified CSV: %w", err)
	}
	return nil
}
