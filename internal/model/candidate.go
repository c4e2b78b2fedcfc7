package model

// CandidateRule is a rule proposed by the pattern learner or derived from a
// manual correction. Candidates are not part of the authoritative rule set
// until the merger commits them.
type CandidateRule struct {
	Name               string
	MainCategory       string
	SubCategory        string
	EmployeeName       string // Non-empty for salary-rule candidates
	Source             RuleSource
	Any                []string
	SampleDescriptions []string
	VendorTexts        []string
	Priority           int
	Frequency          int
	Confidence         float64
}

// IsSalary reports whether the candidate should be committed as a
// salary-name rule rather than a keyword rule.
func (c *CandidateRule) IsSalary() bool {
	return c.EmployeeName != ""
}

// PrimaryKeyword returns the first keyword, the one duplicate checks key on.
func (c *CandidateRule) PrimaryKeyword() string {
	if len(c.Any) == 0 {
		return ""
	}
	return c.Any[0]
}

// MergeResult reports what a merge invocation did to the rule set.
type MergeResult struct {
	Updated  []Rule
	Inserted []Rule
	Rejected []CandidateRule
}
