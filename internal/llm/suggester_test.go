package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns canned responses, optionally failing first.
type stubClient struct {
	response  string
	err       error
	failFirst int
	calls     int
	prompt    string
}

func (c *stubClient) Suggest(_ context.Context, prompt string) (string, error) {
	c.calls++
	c.prompt = prompt
	if c.calls <= c.failFirst {
		return "", errors.New("transient upstream error")
	}
	return c.response, c.err
}

func fastConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestSuggester_ReturnsSubCategory(t *testing.T) {
	client := &stubClient{response: `{"sub_category": "Cloud Hosting", "confidence": 0.8}`}
	s := NewSuggester(client, fastConfig(), nil)

	sub, err := s.SuggestSubCategory(context.Background(), "AWS EMEA PAYMENT", -1200, "Software")
	require.NoError(t, err)
	assert.Equal(t, "Cloud Hosting", sub)

	assert.Contains(t, client.prompt, "AWS EMEA PAYMENT")
	assert.Contains(t, client.prompt, "Software")
}

func TestSuggester_RetriesTransientFailures(t *testing.T) {
	client := &stubClient{
		response:  `{"sub_category": "Delivery", "confidence": 0.7}`,
		failFirst: 2,
	}
	s := NewSuggester(client, fastConfig(), nil)

	sub, err := s.SuggestSubCategory(context.Background(), "UPI SWIGGY", -300, "Food & Dining")
	require.NoError(t, err)
	assert.Equal(t, "Delivery", sub)
	assert.Equal(t, 3, client.calls)
}

func TestSuggester_GivesUpAfterMaxAttempts(t *testing.T) {
	client := &stubClient{failFirst: 10}
	s := NewSuggester(client, fastConfig(), nil)

	_, err := s.SuggestSubCategory(context.Background(), "UPI SWIGGY", -300, "Food & Dining")
	require.Error(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{"bare json", `{"sub_category": "Delivery", "confidence": 0.9}`, "Delivery", false},
		{"json fence", "```json\n{\"sub_category\": \"Delivery\", \"confidence\": 0.9}\n```", "Delivery", false},
		{"plain fence", "```\n{\"sub_category\": \"Delivery\"}\n```", "Delivery", false},
		{"surrounding whitespace", "  {\"sub_category\": \" Delivery \"}  ", "Delivery", false},
		{"empty sub-category", `{"sub_category": "", "confidence": 0.9}`, "", true},
		{"not json", "Delivery sounds right!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseSuggestion(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.SubCategory)
		})
	}
}

func TestCleanMarkdownWrapper(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanMarkdownWrapper("{\"a\":1}"))
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}
