package learn

import (
	"fmt"
	"strings"

	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
)

// manualCorrectionConfidence is attributed to human-verified labels.
const manualCorrectionConfidence = 0.95

// salaryVendorMarkers flag a vendor string that embeds an employee name,
// e.g. "50100440274478-TPT-SALARY-KASIMALLA".
var salaryVendorMarkers = []string{"TPT-SALARY-", "SALARY-"}

// salaryDescriptionWords are tokens whose preceding word is usually the
// employee name in a salary narration.
var salaryDescriptionWords = []string{"SALARY", "EXPENSES", "TPT"}

// CandidatesFromCorrections converts manually corrected transactions into
// candidate rules. Corrections to "Salaries & Wages" become salary-name
// candidates when an employee name can be recovered from the vendor text or
// the narration; everything else becomes a keyword candidate named with the
// "Manual: " prefix so its provenance stays visible next to auto-learned
// rules.
func CandidatesFromCorrections(corrections []model.LabeledTransaction) []model.CandidateRule {
	var candidates []model.CandidateRule

	for _, c := range corrections {
		if !c.Labeled() {
			continue
		}

		if c.MainCategory == model.SalaryMainCategory {
			if name := extractEmployeeName(c.Normalized, c.VendorText); name != "" {
				candidates = append(candidates, model.CandidateRule{
					Name:         fmt.Sprintf("Salary: %s", name),
					EmployeeName: name,
					MainCategory: model.SalaryMainCategory,
					SubCategory:  c.SubCategory,
					Priority:     manualRulePriority,
					Frequency:    1,
					Confidence:   manualCorrectionConfidence,
					Source:       model.SourceManual,
				})
				continue
			}
			// No recoverable name; fall through to a keyword candidate.
		}

		keywords := narration.ExtractKeywords(c.Normalized, c.VendorText)
		if len(keywords) == 0 {
			continue
		}
		if len(keywords) > maxRuleKeywords {
			keywords = keywords[:maxRuleKeywords]
		}

		name := fmt.Sprintf("Manual: %s", keywords[0])
		if len(keywords) > 1 {
			name = fmt.Sprintf("%s +%d", name, len(keywords)-1)
		}

		candidates = append(candidates, model.CandidateRule{
			Name:         name,
			Any:          keywords,
			MainCategory: c.MainCategory,
			SubCategory:  c.SubCategory,
			Priority:     manualRulePriority,
			Frequency:    1,
			Confidence:   manualCorrectionConfidence,
			Source:       model.SourceManual,
		})
	}

	return candidates
}

// extractEmployeeName recovers an employee name from salary vendor text like
// "50100440274478-TPT-SALARY-KASIMALLA" (last dash-separated part), or from
// the narration token preceding a salary context word.
func extractEmployeeName(normalized, vendorText string) string {
	vendor := strings.ToUpper(vendorText)
	for _, marker := range salaryVendorMarkers {
		if !strings.Contains(vendor, marker) {
			continue
		}
		parts := strings.Split(vendor, "-")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	words := strings.Fields(strings.ToUpper(normalized))
	for i, word := range words {
		for _, salaryWord := range salaryDescriptionWords {
			if word == salaryWord && i > 0 {
				return words[i-1]
			}
		}
	}

	return ""
}
