package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/petgully/tally/internal/config"
	"github.com/petgully/tally/internal/llm"
	"github.com/petgully/tally/internal/rules"
	"github.com/petgully/tally/internal/scorer"
	"github.com/petgully/tally/internal/service"
	"github.com/petgully/tally/internal/storage"
)

// defaultScoreThreshold gates the statistical fallback; a prediction below
// it leaves the main category to the Uncategorized default.
const defaultScoreThreshold = 0.6

// initStorage opens the database and brings the schema up to date. Commands
// work against the service contract, not the concrete store.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/tally/tally.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// buildPipeline assembles the three-layer classifier. The scorer is trained
// on whatever labeled corpus exists; too small a corpus just means no
// statistical layer. The LLM layer needs a configured provider.
func buildPipeline(ctx context.Context, store service.Storage, cache *rules.Cache, useLLM bool, logger *slog.Logger) (*rules.Pipeline, error) {
	engine := rules.NewEngine(cache, logger)

	var statistical rules.Scorer
	corpus, err := store.GetLabeledTransactions(ctx, storage.LabeledTransactionFilter{MinConfidence: 0.5})
	if err != nil {
		return nil, fmt.Errorf("failed to load labeled corpus: %w", err)
	}
	bayes := scorer.NewBayes(logger)
	if err := bayes.Train(corpus); err != nil {
		logger.Info("statistical scorer disabled", "reason", err)
	} else {
		statistical = bayes
	}

	var suggester rules.SubCategorySuggester
	if useLLM {
		llmCfg := llm.Config{
			Provider:    viper.GetString("llm.provider"),
			APIKey:      viper.GetString("llm.api_key"),
			Model:       viper.GetString("llm.model"),
			MaxRetries:  viper.GetInt("llm.max_retries"),
			RetryDelay:  viper.GetDuration("llm.retry_delay"),
			Temperature: viper.GetFloat64("llm.temperature"),
			MaxTokens:   viper.GetInt("llm.max_tokens"),
		}
		if llmCfg.Provider == "" {
			logger.Info("LLM suggester disabled: no provider configured")
		} else {
			client, err := llm.NewClient(ctx, llmCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create LLM client: %w", err)
			}
			suggester = llm.NewSuggester(client, llmCfg, logger)
		}
	}

	threshold := viper.GetFloat64("scorer.threshold")
	if threshold == 0 {
		threshold = defaultScoreThreshold
	}

	return rules.NewPipeline(engine, statistical, suggester, threshold, logger), nil
}

// newRuleCache creates the TTL snapshot cache over the store.
func newRuleCache(store service.Storage, logger *slog.Logger) *rules.Cache {
	ttl := viper.GetDuration("rules.cache_ttl")
	if ttl <= 0 {
		ttl = rules.DefaultCacheTTL
	}
	return rules.NewCache(store, ttl, logger)
}
