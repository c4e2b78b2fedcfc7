// Package llm provides generative fallbacks for sub-category suggestion.
// It is consulted only when neither a rule nor the statistical scorer
// produced a sub-category, so every call here is already a rare path.
package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Suggest sends a prompt and returns the provider's raw completion text.
	Suggest(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the LLM layer.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	Temperature float64
	MaxTokens   int
}

// SuggestionResponse is a parsed sub-category suggestion.
type SuggestionResponse struct {
	SubCategory string  `json:"sub_category"`
	Confidence  float64 `json:"confidence"`
}
