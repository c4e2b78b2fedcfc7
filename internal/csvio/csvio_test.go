package csvio

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petgully/tally/internal/model"
)

const sampleStatement = `Date,Narration,Chq./Ref.No.,Value Dt,Withdrawal Amt.,Deposit Amt.,Closing Balance
01/06/25,UPI-SWIGGY-BANGALORE,REF001,01/06/25,450.00,,"12,550.00"
02/06/25,NEFT CR SALARY REFUND,REF002,02/06/25,,"1,200.50","13,750.50"
bad-date,UPI-ZOMATO,REF003,03/06/25,100.00,,13650.50
03/06/25,POS AMAZON PAY,REF004,03/06/25,999.99,,"12,750.51"
`

func TestParseStatement(t *testing.T) {
	txns, err := ParseStatement(strings.NewReader(sampleStatement), "hdfc-current", slog.Default())
	require.NoError(t, err)
	require.Len(t, txns, 3)

	first := txns[0]
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "UPI-SWIGGY-BANGALORE", first.Description)
	assert.Equal(t, "UPI-SWIGGY-BANGALORE", first.Normalized)
	assert.Equal(t, -450.0, first.Amount)
	assert.Equal(t, "hdfc-current", first.Account)
	assert.Equal(t, "INR", first.Currency)
	assert.Equal(t, "REF001", first.ID)
	assert.NotEmpty(t, first.Hash)
	require.NotNil(t, first.Balance)
	assert.Equal(t, 12550.0, *first.Balance)

	// Deposits come out positive.
	assert.Equal(t, 1200.50, txns[1].Amount)

	// The bad-date row is skipped, not fatal.
	assert.Equal(t, -999.99, txns[2].Amount)
}

func TestParseStatement_EmptyInput(t *testing.T) {
	_, err := ParseStatement(strings.NewReader(""), "acc", slog.Default())
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"01/06/25", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"01/06/2025", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"01-06-2025", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{" 01/06/25 ", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"June 1st", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseSignedAmount(t *testing.T) {
	amount, err := parseSignedAmount("1,500.00", "")
	require.NoError(t, err)
	assert.Equal(t, -1500.0, amount)

	amount, err = parseSignedAmount("", "200.00")
	require.NoError(t, err)
	assert.Equal(t, 200.0, amount)

	_, err = parseSignedAmount("", "")
	assert.Error(t, err)
}

func TestWriteClassified(t *testing.T) {
	classified := []model.Classification{
		{
			Transaction: model.Transaction{
				Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				Description: "UPI-SWIGGY-BANGALORE",
				Amount:      -450,
			},
			Vendor:       "SWIGGY",
			MainCategory: "Office Overhead",
			SubCategory:  "Swiggy",
			MainSource:   model.SourceRule,
			Confidence:   0.95,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteClassified(&buf, classified))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Description,Vendor,Amount,Main Category,Sub Category,Source,Confidence", lines[0])
	assert.Contains(t, lines[1], "2025-06-01")
	assert.Contains(t, lines[1], "UPI-SWIGGY-BANGALORE")
	assert.Contains(t, lines[1], "Office Overhead")
	assert.Contains(t, lines[1], "rule")
}

func TestWriteClassified_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteClassified(&buf, nil))
	assert.Contains(t, buf.String(), "Date,Description")
}
