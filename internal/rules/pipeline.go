package rules

import (
	"context"
	"log/slog"

	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
)

// ruleConfidence is assigned when a deterministic rule matches.
const ruleConfidence = 0.95

// uncategorizedMain is the terminal main category when nothing fires.
const uncategorizedMain = "Uncategorized"

// fallbackSub is the terminal sub category when the suggester is absent or fails.
const fallbackSub = "Misc"

// Scorer is the statistical fallback, consulted only when no rule matched.
type Scorer interface {
	// ScoreMain predicts a main category and its confidence for a
	// normalized description.
	ScoreMain(ctx context.Context, normalized string) (string, float64, error)
}

// SubCategorySuggester is the generative fallback, consulted only when the
// rule and statistical stages leave the sub-category empty.
type SubCategorySuggester interface {
	SuggestSubCategory(ctx context.Context, normalized string, amount float64, mainCategory string) (string, error)
}

// Pipeline chains the three decision layers: deterministic rules, the
// statistical scorer, and the generative sub-category suggester. Scorer and
// suggester are optional; absent collaborators simply leave their layer out.
type Pipeline struct {
	engine         *Engine
	scorer         Scorer
	suggester      SubCategorySuggester
	logger         *slog.Logger
	scoreThreshold float64
}

// NewPipeline assembles a classification pipeline.
func NewPipeline(engine *Engine, scorer Scorer, suggester SubCategorySuggester, scoreThreshold float64, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		engine:         engine,
		scorer:         scorer,
		suggester:      suggester,
		scoreThreshold: scoreThreshold,
		logger:         logger,
	}
}

// Classify resolves a single transaction to a full classification. The
// narration is normalized here; the rule engine itself only upper-cases.
func (p *Pipeline) Classify(ctx context.Context, txn model.Transaction) model.Classification {
	normalized := txn.Normalized
	if normalized == "" {
		normalized = narration.Normalize(txn.Description)
	}

	result := model.Classification{
		Transaction: txn,
		Vendor:      narration.DeriveVendor(normalized),
		MainSource:  model.SourceNone,
		SubSource:   model.SourceNone,
	}

	verdict := p.engine.Classify(ctx, &normalized)
	if verdict.Matched {
		result.MainCategory = verdict.MainCategory
		result.SubCategory = verdict.SubCategory
		result.RuleName = verdict.RuleName
		result.RuleID = verdict.RuleID
		result.MainSource = model.SourceRule
		result.SubSource = model.SourceRule
		result.Confidence = ruleConfidence
		return result
	}

	// Statistical fallback for the main category.
	if p.scorer != nil {
		main, conf, err := p.scorer.ScoreMain(ctx, normalized)
		switch {
		case err != nil:
			p.logger.Warn("scorer failed, falling through", "error", err)
		case conf >= p.scoreThreshold:
			result.MainCategory = main
			result.MainSource = model.SourceScorer
			result.Confidence = conf
		default:
			result.Confidence = conf
		}
	}
	if result.MainCategory == "" {
		result.MainCategory = uncategorizedMain
	}

	// Generative fallback for the sub-category.
	if p.suggester != nil {
		sub, err := p.suggester.SuggestSubCategory(ctx, normalized, txn.Amount, result.MainCategory)
		if err != nil {
			p.logger.Warn("sub-category suggestion failed", "error", err)
		} else if sub != "" {
			result.SubCategory = sub
			result.SubSource = model.SourceLLM
		}
	}
	if result.SubCategory == "" {
		result.SubCategory = fallbackSub
	}

	return result
}
