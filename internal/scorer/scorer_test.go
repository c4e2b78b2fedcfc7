package scorer

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petgully/tally/internal/model"
)

func trainingCorpus() []model.LabeledTransaction {
	var corpus []model.LabeledTransaction
	food := []string{
		"UPI SWIGGY FOOD ORDER",
		"UPI SWIGGY INSTAMART GROCERY",
		"UPI ZOMATO FOOD DELIVERY",
	}
	fuel := []string{
		"POS PETROL BUNK FUEL",
		"POS BPCL DIESEL FILL",
		"UPI UFILL PETROL STATION",
	}
	for i := 0; i < 5; i++ {
		for _, desc := range food {
			corpus = append(corpus, model.LabeledTransaction{
				Normalized: desc, MainCategory: "Food & Dining", SubCategory: "Delivery",
			})
		}
		for _, desc := range fuel {
			corpus = append(corpus, model.LabeledTransaction{
				Normalized: desc, MainCategory: "Fuel", SubCategory: "Fuel - Diesel & Petrol",
			})
		}
	}
	return corpus
}

func TestBayes_ScoreBeforeTrain(t *testing.T) {
	b := NewBayes(slog.Default())

	_, _, err := b.ScoreMain(context.Background(), "UPI SWIGGY")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUntrained)
	assert.False(t, b.Trained())
}

func TestBayes_TrainRequiresEnoughExamples(t *testing.T) {
	b := NewBayes(slog.Default())

	corpus := trainingCorpus()[:MinTrainingExamples-1]
	err := b.Train(corpus)
	require.Error(t, err)
	assert.False(t, b.Trained())
}

func TestBayes_UnlabeledRecordsDoNotCount(t *testing.T) {
	b := NewBayes(slog.Default())

	corpus := trainingCorpus()[:MinTrainingExamples-1]
	for i := 0; i < 10; i++ {
		corpus = append(corpus, model.LabeledTransaction{Normalized: "UPI SOMETHING"})
	}

	err := b.Train(corpus)
	require.Error(t, err)
}

func TestBayes_PredictsDominantClass(t *testing.T) {
	b := NewBayes(slog.Default())
	require.NoError(t, b.Train(trainingCorpus()))
	assert.True(t, b.Trained())

	class, confidence, err := b.ScoreMain(context.Background(), "UPI SWIGGY SNACKS BANGALORE")
	require.NoError(t, err)
	assert.Equal(t, "Food & Dining", class)
	assert.Greater(t, confidence, 0.5)

	class, confidence, err = b.ScoreMain(context.Background(), "POS DIESEL PUMP")
	require.NoError(t, err)
	assert.Equal(t, "Fuel", class)
	assert.Greater(t, confidence, 0.5)
}

func TestBayes_UnknownTokensStillScore(t *testing.T) {
	b := NewBayes(slog.Default())
	require.NoError(t, b.Train(trainingCorpus()))

	// Nothing from the vocabulary; smoothing keeps the math finite and some
	// class still wins.
	class, confidence, err := b.ScoreMain(context.Background(), "NEFT QUANTUMFROBNICATOR LTD")
	require.NoError(t, err)
	assert.NotEmpty(t, class)
	assert.Greater(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestBayes_EmptyNarration(t *testing.T) {
	b := NewBayes(slog.Default())
	require.NoError(t, b.Train(trainingCorpus()))

	class, confidence, err := b.ScoreMain(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, class)
	assert.Zero(t, confidence)
}

func TestNormalizePosteriors_DeterministicTieBreak(t *testing.T) {
	class, prob := normalizePosteriors(map[string]float64{
		"Beta":  -2.0,
		"Alpha": -2.0,
	})
	assert.Equal(t, "Alpha", class)
	assert.InDelta(t, 0.5, prob, 1e-9)
}
