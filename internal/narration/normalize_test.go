package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapses runs of whitespace",
			input: "UPI  SWIGGY\t\tBANGALORE\n123",
			want:  "UPI SWIGGY BANGALORE 123",
		},
		{
			name:  "strips characters outside the narration charset",
			input: "POS 1234*AMAZON (IN) #ref",
			want:  "POS 1234AMAZON IN ref",
		},
		{
			name:  "keeps ampersand colon slash dot underscore dash",
			input: "M&M FIN:SERV/EMI_01 ACH-DR",
			want:  "M&M FIN:SERV/EMI_01 ACH-DR",
		},
		{
			name:  "trims leading and trailing whitespace",
			input: "   NEFT DR HDFC   ",
			want:  "NEFT DR HDFC",
		},
		{
			name:  "stripped character cannot leave a double space",
			input: "a @ b",
			want:  "a b",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only stripped characters",
			input: "@#$%",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"UPI  SWIGGY\t\tBANGALORE",
		"a @ b @ c",
		"POS 1234*AMAZON (IN)",
		"  NEFT-DR / HDFC0001 ..  ",
	}

	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", input)
	}
}
