package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/petgully/tally/internal/common"
)

// Suggester asks an LLM for a sub-category when the deterministic layers
// leave it empty. It implements the pipeline's SubCategorySuggester.
type Suggester struct {
	client    Client
	logger    *slog.Logger
	retryOpts common.RetryOptions
}

// NewSuggester creates a sub-category suggester over the given client.
func NewSuggester(client Client, cfg Config, logger *slog.Logger) *Suggester {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Suggester{
		client:    client,
		logger:    logger,
		retryOpts: retryOpts,
	}
}

// SuggestSubCategory asks the LLM for a sub-category given the narration,
// the amount, and the already-resolved main category.
func (s *Suggester) SuggestSubCategory(ctx context.Context, normalized string, amount float64, mainCategory string) (string, error) {
	prompt := buildPrompt(normalized, amount, mainCategory)

	var content string
	err := common.WithRetry(ctx, func() error {
		var callErr error
		content, callErr = s.client.Suggest(ctx, prompt)
		return callErr
	}, s.retryOpts)
	if err != nil {
		return "", fmt.Errorf("sub-category suggestion failed: %w", err)
	}

	suggestion, err := parseSuggestion(content)
	if err != nil {
		s.logger.Warn("unparsable LLM suggestion", "content", content, "error", err)
		return "", err
	}

	return suggestion.SubCategory, nil
}

// buildPrompt renders the sub-category request.
func buildPrompt(normalized string, amount float64, mainCategory string) string {
	return fmt.Sprintf(`Suggest a concise sub-category for this bank transaction.

Description: %s
Amount: %.2f
Main category: %s

Respond with ONLY a JSON object in this exact format:
{"sub_category": "...", "confidence": 0.0}

The sub-category must be a short noun phrase (at most 4 words) that fits under the main category.`,
		normalized, amount, mainCategory)
}

// parseSuggestion extracts the sub-category from the LLM response, tolerating
// a markdown code fence around the JSON.
func parseSuggestion(content string) (SuggestionResponse, error) {
	content = cleanMarkdownWrapper(content)

	var resp SuggestionResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return SuggestionResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if strings.TrimSpace(resp.SubCategory) == "" {
		return SuggestionResponse{}, fmt.Errorf("no sub-category found in response")
	}

	resp.SubCategory = strings.TrimSpace(resp.SubCategory)
	return resp, nil
}

// cleanMarkdownWrapper strips a ```json fence if the model added one despite
// instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
