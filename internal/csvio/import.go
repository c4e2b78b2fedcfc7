// Package csvio reads bank statement CSV exports and writes categorized
// results back out as CSV.
package csvio

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
)

// statementRow maps one row of a bank statement CSV export. The column names
// follow the HDFC statement layout; trailing dots and whitespace in headers
// are part of the format.
type statementRow struct {
	Date           string `csv:"Date"`
	Narration      string `csv:"Narration"`
	ChequeRefNo    string `csv:"Chq./Ref.No."`
	ValueDate      string `csv:"Value Dt"`
	Withdrawal     string `csv:"Withdrawal Amt."`
	Deposit        string `csv:"Deposit Amt."`
	ClosingBalance string `csv:"Closing Balance"`
}

// dateLayouts are the posting date formats seen across statement exports.
var dateLayouts = []string{"02/01/06", "02/01/2006", "2006-01-02", "02-01-2006"}

// ParseStatement reads a statement CSV and returns corpus transactions.
// Withdrawals come out negative, deposits positive. Rows whose date cannot
// be parsed are skipped with a warning rather than failing the import.
func ParseStatement(r io.Reader, account string, logger *slog.Logger) ([]model.Transaction, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rows []*statementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse statement CSV: %w", err)
	}

	var transactions []model.Transaction
	skipped := 0
	for _, row := range rows {
		if strings.TrimSpace(row.Date) == "" {
			continue
		}

		txn, err := convertRow(row, account)
		if err != nil {
			logger.Warn("skipping unparsable statement row",
				"date", row.Date, "narration", row.Narration, "error", err)
			skipped++
			continue
		}
		transactions = append(transactions, txn)
	}

	logger.Info("parsed statement CSV",
		"transactions", len(transactions), "skipped", skipped)

	return transactions, nil
}

func convertRow(row *statementRow, account string) (model.Transaction, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := parseSignedAmount(row.Withdrawal, row.Deposit)
	if err != nil {
		return model.Transaction{}, err
	}

	description := strings.TrimSpace(row.Narration)
	normalized := narration.Normalize(description)

	txn := model.Transaction{
		ID:          strings.TrimSpace(row.ChequeRefNo),
		Date:        date,
		Description: description,
		Normalized:  normalized,
		VendorText:  narration.DeriveVendor(normalized),
		Account:     account,
		Currency:    "INR",
		Amount:      amount,
	}

	if balance, err := parseAmount(row.ClosingBalance); err == nil {
		txn.Balance = &balance
	}

	txn.Hash = txn.GenerateHash()
	return txn, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseSignedAmount folds the separate withdrawal and deposit columns into
// one signed amount, debits negative.
func parseSignedAmount(withdrawal, deposit string) (float64, error) {
	if w, err := parseAmount(withdrawal); err == nil && w != 0 {
		return -w, nil
	}
	if d, err := parseAmount(deposit); err == nil {
		return d, nil
	}
	return 0, fmt.Errorf("no amount in row")
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseFloat(s, 64)
}
