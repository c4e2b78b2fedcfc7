package model

// Verdict is the outcome of rule evaluation against a narration. The zero
// value means no rule matched; Matched distinguishes that from a verdict
// whose fields happen to be empty.
type Verdict struct {
	MainCategory string
	SubCategory  string
	RuleName     string
	RuleID       int // zero for salary-name verdicts
	Matched      bool
}

// NoMatch is the terminal "no rule matched" verdict.
func NoMatch() Verdict {
	return Verdict{}
}

// ClassificationSource indicates which decision layer produced a category.
type ClassificationSource string

const (
	// SourceRule means a deterministic rule matched.
	SourceRule ClassificationSource = "rule"
	// SourceScorer means the statistical fallback supplied the category.
	SourceScorer ClassificationSource = "scorer"
	// SourceLLM means the generative fallback supplied the sub-category.
	SourceLLM ClassificationSource = "llm"
	// SourceNone means nothing fired; the category defaults to Uncategorized.
	SourceNone ClassificationSource = "none"
)

// Classification is a fully resolved categorization of one transaction,
// produced by the classify pipeline.
type Classification struct {
	Transaction  Transaction
	MainCategory string
	SubCategory  string
	RuleName     string
	RuleID       int
	Vendor       string
	MainSource   ClassificationSource
	SubSource    ClassificationSource
	Confidence   float64
}
