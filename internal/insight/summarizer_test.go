package insight_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/market-pulse/backend/internal/insight"
	"github.com/market-pulse/backend/internal/models"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s stubGenerator) Name() string { return "stub" }

func (s stubGenerator) GenerateCommentary(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarizeTemplates(t *testing.T) {
	s := insight.NewSummarizer(nil, discardLogger())

	summary := models.SentimentSummary{
		Total:         10,
		PositiveCount: 6,
		NegativeCount: 1,
		NeutralCount:  3,
		MeanScore:     0.42,
	}
	forecast := models.TrendForecast{
		Direction:  models.DirectionUp,
		Confidence: 0.8,
		Horizon:    30,
	}

	report := s.Summarize(context.Background(), summary, forecast)
	require.False(t, report.Generated)
	require.Contains(t, report.SentimentCommentary, "predominantly positive")
	require.Contains(t, report.SentimentCommentary, "6 of 10")
	require.Contains(t, report.TrendCommentary, "rise")
	require.Contains(t, report.TrendCommentary, "high confidence")
	require.NotContains(t, report.TrendCommentary, "fallback")
}

func TestSummarizeEmptyWindow(t *testing.T) {
	s := insight.NewSummarizer(nil, discardLogger())

	report := s.Summarize(context.Background(),
		models.SentimentSummary{},
		models.TrendForecast{InsufficientData: true, Horizon: 30},
	)
	require.Equal(t, "No documents were analyzed in this window.", report.SentimentCommentary)
	require.Equal(t, "Not enough history to project a sentiment trend.", report.TrendCommentary)
}

func TestSummarizeFlagsFallbackModel(t *testing.T) {
	s := insight.NewSummarizer(nil, discardLogger())

	report := s.Summarize(context.Background(),
		models.SentimentSummary{Total: 3, NeutralCount: 3},
		models.TrendForecast{
			Direction:  models.DirectionFlat,
			Confidence: 0.5,
			Fallback:   true,
			Horizon:    14,
		},
	)
	require.Contains(t, report.TrendCommentary, "stay stable")
	require.Contains(t, report.TrendCommentary, "moderate confidence")
	require.Contains(t, report.TrendCommentary, "linear fallback model")
}

func TestSummarizeUsesGenerator(t *testing.T) {
	gen := stubGenerator{reply: "Sentiment: Upbeat coverage across the board.\nTrend: Momentum should continue.\n"}
	s := insight.NewSummarizer(gen, discardLogger())

	report := s.Summarize(context.Background(),
		models.SentimentSummary{Total: 5, PositiveCount: 4, NeutralCount: 1, MeanScore: 0.5},
		models.TrendForecast{Direction: models.DirectionUp, Confidence: 0.9, Horizon: 30},
	)
	require.True(t, report.Generated)
	require.Equal(t, "Upbeat coverage across the board.", report.SentimentCommentary)
	require.Equal(t, "Momentum should continue.", report.TrendCommentary)
}

func TestSummarizeGeneratorErrorFallsBack(t *testing.T) {
	s := insight.NewSummarizer(stubGenerator{err: errors.New("quota")}, discardLogger())

	report := s.Summarize(context.Background(),
		models.SentimentSummary{Total: 2, NegativeCount: 2, MeanScore: -0.6},
		models.TrendForecast{Direction: models.DirectionDown, Confidence: 0.3, Horizon: 7},
	)
	require.False(t, report.Generated)
	require.Contains(t, report.SentimentCommentary, "predominantly negative")
	require.Contains(t, report.TrendCommentary, "decline")
	require.Contains(t, report.TrendCommentary, "low confidence")
}

func TestSummarizeUnusableReplyFallsBack(t *testing.T) {
	s := insight.NewSummarizer(stubGenerator{reply: "I cannot help with that."}, discardLogger())

	report := s.Summarize(context.Background(),
		models.SentimentSummary{Total: 1, NeutralCount: 1},
		models.TrendForecast{Direction: models.DirectionFlat, Confidence: 0.5, Horizon: 30},
	)
	require.False(t, report.Generated)
	require.Contains(t, report.SentimentCommentary, "largely neutral")
}
