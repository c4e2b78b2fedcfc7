package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/petgully/tally/internal/model"
)

// Engine evaluates narrations against the cached rule set in strict
// precedence order: salary-name rules first, then keyword rules ascending by
// priority. A narration maps to at most one verdict.
type Engine struct {
	cache  *Cache
	logger *slog.Logger
}

// NewEngine creates a classifier engine over the given snapshot cache.
func NewEngine(cache *Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cache:  cache,
		logger: logger,
	}
}

// Classify returns the rule verdict for a narration, or the no-match verdict
// when nothing fires. No-match is a normal outcome, not an error: callers
// fall back to the statistical and generative classifiers. When the backing
// store is unreachable the engine degrades to no-match rather than failing
// the caller's batch.
func (e *Engine) Classify(ctx context.Context, narration *string) model.Verdict {
	if narration == nil {
		return model.NoMatch()
	}

	snapshot, err := e.cache.Get(ctx)
	if err != nil {
		e.logger.Warn("rule store unavailable, degrading to no-match", "error", err)
		return model.NoMatch()
	}

	return ClassifyWithSnapshot(snapshot, *narration, e.logger)
}

// ClassifyWithSnapshot evaluates a narration against a fixed snapshot.
// Exposed separately so batch callers can pin one snapshot across a run.
func ClassifyWithSnapshot(snapshot *Snapshot, narration string, logger *slog.Logger) model.Verdict {
	if logger == nil {
		logger = slog.Default()
	}
	text := strings.ToUpper(narration)

	// Salary-name rules win over every keyword rule. First match wins;
	// snapshot order is insertion order, so results are reproducible.
	for _, sr := range snapshot.SalaryRules {
		if sr.EmployeeName == "" {
			continue
		}
		if strings.Contains(text, sr.EmployeeName) && containsAny(text, model.SalaryContextTokens) {
			return model.Verdict{
				MainCategory: model.SalaryMainCategory,
				SubCategory:  sr.SubCategory,
				RuleName:     fmt.Sprintf("Salary name: %s", sr.EmployeeName),
				Matched:      true,
			}
		}
	}

	// Keyword rules, ascending priority, stable on ties.
	for _, r := range snapshot.Rules {
		if !r.IsActive {
			continue
		}
		if len(r.Any) == 0 {
			// Unparsable keyword storage surfaces here as an empty token
			// list; the rule is treated as non-matching.
			logger.Warn("rule has no keywords, skipping", "rule", r.Name, "id", r.ID)
			continue
		}
		if containsAny(text, r.Any) && !containsAny(text, r.Not) {
			return model.Verdict{
				MainCategory: r.MainCategory,
				SubCategory:  r.SubCategory,
				RuleName:     r.Name,
				RuleID:       r.ID,
				Matched:      true,
			}
		}
	}

	return model.NoMatch()
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if tok != "" && strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
