package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		vendorText string
		want       []string
	}{
		{
			name:       "upper-cases and filters short tokens",
			normalized: "upi swiggy bangalore in",
			want:       []string{"SWIGGY", "BANGALORE"},
		},
		{
			name:       "drops stop words and pure digits",
			normalized: "PAYMENT TO AMAZON 123456 FOR ORDER",
			want:       []string{"AMAZON", "ORDER"},
		},
		{
			name:       "drops tokens with punctuation",
			normalized: "NEFT-DR AXIS/BANK M&M ZERODHA",
			want:       []string{"ZERODHA"},
		},
		{
			name:       "deduplicates preserving first-seen order",
			normalized: "SWIGGY ORDER SWIGGY BANGALORE ORDER",
			want:       []string{"SWIGGY", "ORDER", "BANGALORE"},
		},
		{
			name:       "appends meaningful vendor text",
			normalized: "UPI 500123 DR",
			vendorText: "Swiggy Instamart",
			want:       []string{"SWIGGY INSTAMART"},
		},
		{
			name:       "generic vendor text is ignored",
			normalized: "TRANSFER 998877",
			vendorText: "NEFT",
			want:       nil,
		},
		{
			name:       "vendor duplicate of description token",
			normalized: "ZOMATO GURGAON",
			vendorText: "zomato",
			want:       []string{"ZOMATO", "GURGAON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.normalized, tt.vendorText))
		})
	}
}

func TestCleanVendor(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		want   string
	}{
		{"upper-cases and trims", "  swiggy  ", "SWIGGY"},
		{"too short", "ab", ""},
		{"generic transaction marker", "UPI", ""},
		{"generic marker lower case", "pos", ""},
		{"multi-word passes through", "Swiggy Instamart", "SWIGGY INSTAMART"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanVendor(tt.vendor))
		})
	}
}

func TestPatternKey(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		vendorText string
		want       string
	}{
		{
			name:       "vendor text wins verbatim",
			normalized: "UPI SWIGGY BANGALORE",
			vendorText: "Swiggy Instamart",
			want:       "SWIGGY INSTAMART",
		},
		{
			name:       "first three surviving tokens",
			normalized: "UPI SWIGGY BANGALORE ORDER FOOD",
			want:       "SWIGGY BANGALORE ORDER",
		},
		{
			name:       "fewer than three tokens",
			normalized: "DR ZOMATO 1234",
			want:       "ZOMATO",
		},
		{
			name:       "nothing survives falls back to raw prefix",
			normalized: "dr to 12",
			want:       "DR TO 12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternKey(tt.normalized, tt.vendorText))
		})
	}
}

func TestPatternKeyFallbackTruncates(t *testing.T) {
	long := "1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0"
	key := PatternKey(long, "")
	assert.Len(t, key, 50)
}

func TestDeriveVendor(t *testing.T) {
	tests := []struct {
		name       string
		normalized string
		want       string
	}{
		{"first token", "SWIGGY BANGALORE UPI", "SWIGGY"},
		{"single token", "ZERODHA", "ZERODHA"},
		{"empty", "", ""},
		{
			"truncated to forty characters",
			"NEFTDR-AXIS0001-SALARYTRANSFERFORTHEMONTHOFAPRIL REF",
			"NEFTDR-AXIS0001-SALARYTRANSFERFORTHEMONT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveVendor(tt.normalized))
		})
	}
}
