// Package scorer implements the statistical fallback for main-category
// prediction: a multinomial naive Bayes model trained on the labeled
// transaction corpus.
package scorer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/narration"
)

// ErrUntrained is returned when scoring is attempted before Train.
var ErrUntrained = errors.New("scorer has not been trained")

// MinTrainingExamples is the smallest corpus Train accepts. Below this the
// probabilities are too noisy to beat the Uncategorized default.
const MinTrainingExamples = 20

// laplaceAlpha is the additive smoothing constant.
const laplaceAlpha = 1.0

// Bayes is a multinomial naive Bayes classifier over narration tokens. It is
// immutable after Train, so a single instance is safe for concurrent use.
type Bayes struct {
	tokenCounts map[string]map[string]float64
	classTotals map[string]float64
	classPriors map[string]float64
	vocabulary  map[string]struct{}
	logger      *slog.Logger
	trained     bool
}

// NewBayes creates an untrained classifier.
func NewBayes(logger *slog.Logger) *Bayes {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bayes{
		tokenCounts: make(map[string]map[string]float64),
		classTotals: make(map[string]float64),
		classPriors: make(map[string]float64),
		vocabulary:  make(map[string]struct{}),
		logger:      logger,
	}
}

// Train fits the model on labeled corpus records. Records without both
// category labels are skipped.
func (b *Bayes) Train(corpus []model.LabeledTransaction) error {
	classDocs := make(map[string]float64)
	total := 0

	for i := range corpus {
		lt := &corpus[i]
		if !lt.Labeled() {
			continue
		}
		tokens := narration.ExtractKeywords(lt.Normalized, lt.VendorText)
		if len(tokens) == 0 {
			continue
		}

		class := lt.MainCategory
		if b.tokenCounts[class] == nil {
			b.tokenCounts[class] = make(map[string]float64)
		}
		for _, tok := range tokens {
			b.tokenCounts[class][tok]++
			b.classTotals[class]++
			b.vocabulary[tok] = struct{}{}
		}
		classDocs[class]++
		total++
	}

	if total < MinTrainingExamples {
		return errors.New("not enough labeled transactions to train the scorer")
	}

	for class, docs := range classDocs {
		b.classPriors[class] = math.Log(docs / float64(total))
	}
	b.trained = true

	b.logger.Debug("scorer trained",
		"examples", total,
		"classes", len(classDocs),
		"vocabulary", len(b.vocabulary))
	return nil
}

// Trained reports whether the model has been fit.
func (b *Bayes) Trained() bool {
	return b.trained
}

// ScoreMain predicts the main category for a normalized description. The
// confidence is the posterior probability of the winning class.
func (b *Bayes) ScoreMain(_ context.Context, normalized string) (string, float64, error) {
	if !b.trained {
		return "", 0, ErrUntrained
	}

	tokens := narration.ExtractKeywords(normalized, "")
	if len(tokens) == 0 {
		tokens = strings.Fields(strings.ToUpper(normalized))
	}
	if len(tokens) == 0 {
		return "", 0, nil
	}

	vocabSize := float64(len(b.vocabulary))
	logPosteriors := make(map[string]float64, len(b.classPriors))
	for class, prior := range b.classPriors {
		score := prior
		counts := b.tokenCounts[class]
		denom := b.classTotals[class] + laplaceAlpha*vocabSize
		for _, tok := range tokens {
			score += math.Log((counts[tok] + laplaceAlpha) / denom)
		}
		logPosteriors[class] = score
	}

	best, confidence := normalizePosteriors(logPosteriors)
	return best, confidence, nil
}

// normalizePosteriors converts log posteriors to probabilities via the
// log-sum-exp trick and returns the winning class with its probability.
func normalizePosteriors(logPosteriors map[string]float64) (string, float64) {
	maxLog := math.Inf(-1)
	for _, lp := range logPosteriors {
		if lp > maxLog {
			maxLog = lp
		}
	}

	var sum float64
	exps := make(map[string]float64, len(logPosteriors))
	for class, lp := range logPosteriors {
		e := math.Exp(lp - maxLog)
		exps[class] = e
		sum += e
	}

	var best string
	var bestProb float64
	for class, e := range exps {
		prob := e / sum
		if prob > bestProb || (prob == bestProb && class < best) {
			best = class
			bestProb = prob
		}
	}
	return best, bestProb
}
