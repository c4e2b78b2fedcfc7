package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/petgully/tally/internal/model"
)

type stubScorer struct {
	main string
	conf float64
	err  error
}

func (s *stubScorer) ScoreMain(_ context.Context, _ string) (string, float64, error) {
	return s.main, s.conf, s.err
}

type stubSuggester struct {
	sub string
	err error
}

func (s *stubSuggester) SuggestSubCategory(_ context.Context, _ string, _ float64, _ string) (string, error) {
	return s.sub, s.err
}

func pipelineWith(t *testing.T, rules []model.Rule, scorer Scorer, suggester SubCategorySuggester) *Pipeline {
	t.Helper()
	cache := NewCache(&stubStore{rules: rules}, 0, nil)
	return NewPipeline(NewEngine(cache, nil), scorer, suggester, 0.6, nil)
}

func TestPipeline_RuleWinsOverFallbacks(t *testing.T) {
	rules := []model.Rule{
		{ID: 1, Name: "Food", Priority: 10, IsActive: true, Any: []string{"SWIGGY"}, MainCategory: "Food & Dining", SubCategory: "Delivery"},
	}
	p := pipelineWith(t, rules, &stubScorer{main: "Wrong", conf: 0.99}, &stubSuggester{sub: "Wrong"})

	result := p.Classify(context.Background(), model.Transaction{Description: "UPI SWIGGY BANGALORE"})

	assert.Equal(t, "Food & Dining", result.MainCategory)
	assert.Equal(t, "Delivery", result.SubCategory)
	assert.Equal(t, model.SourceRule, result.MainSource)
	assert.Equal(t, model.SourceRule, result.SubSource)
	assert.Equal(t, 1, result.RuleID)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
}

func TestPipeline_ScorerFillsMainAboveThreshold(t *testing.T) {
	p := pipelineWith(t, nil, &stubScorer{main: "Groceries", conf: 0.8}, &stubSuggester{sub: "Supermarket"})

	result := p.Classify(context.Background(), model.Transaction{Description: "DMART HYDERABAD"})

	assert.Equal(t, "Groceries", result.MainCategory)
	assert.Equal(t, model.SourceScorer, result.MainSource)
	assert.Equal(t, "Supermarket", result.SubCategory)
	assert.Equal(t, model.SourceLLM, result.SubSource)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestPipeline_LowScoreFallsToUncategorized(t *testing.T) {
	p := pipelineWith(t, nil, &stubScorer{main: "Groceries", conf: 0.3}, nil)

	result := p.Classify(context.Background(), model.Transaction{Description: "DMART HYDERABAD"})

	assert.Equal(t, "Uncategorized", result.MainCategory)
	assert.Equal(t, model.SourceNone, result.MainSource)
	assert.Equal(t, "Misc", result.SubCategory)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestPipeline_NoCollaborators(t *testing.T) {
	p := pipelineWith(t, nil, nil, nil)

	result := p.Classify(context.Background(), model.Transaction{Description: "SOMETHING NEW"})

	assert.Equal(t, "Uncategorized", result.MainCategory)
	assert.Equal(t, "Misc", result.SubCategory)
	assert.Equal(t, model.SourceNone, result.MainSource)
	assert.Equal(t, model.SourceNone, result.SubSource)
}

func TestPipeline_SuggesterErrorIsNotFatal(t *testing.T) {
	p := pipelineWith(t, nil, nil, &stubSuggester{err: assert.AnError})

	result := p.Classify(context.Background(), model.Transaction{Description: "SOMETHING NEW"})

	assert.Equal(t, "Misc", result.SubCategory)
	assert.Equal(t, model.SourceNone, result.SubSource)
}

func TestPipeline_DerivesVendor(t *testing.T) {
	p := pipelineWith(t, nil, nil, nil)

	result := p.Classify(context.Background(), model.Transaction{Description: "SWIGGY  BANGALORE*123"})

	assert.Equal(t, "SWIGGY", result.Vendor)
}
