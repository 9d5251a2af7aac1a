package analysis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/market-pulse/backend/internal/analysis"
	"github.com/market-pulse/backend/internal/config"
	"github.com/market-pulse/backend/internal/models"
)

func testPipeline(t *testing.T) *analysis.Pipeline {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := analysis.NewFromConfig(config.Analysis{
		PositiveThreshold: 0.1,
		NegativeThreshold: -0.1,
		Horizon:           30,
		MinSeriesDays:     7,
		EnableLexicon:     true,
		EnableIntensity:   true,
		AIProvider:        "none",
	}, log)
	require.NoError(t, err)
	return p
}

func TestRunPositiveDay(t *testing.T) {
	p := testPipeline(t)
	published := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	articles := make([]models.Article, 0, 10)
	for i := 0; i < 10; i++ {
		articles = append(articles, models.Article{
			Title:       "Shares surge on strong profit growth",
			Body:        "The rally continued as earnings beat expectations and gains accelerated.",
			PublishedAt: published,
		})
	}

	result, err := p.Run(context.Background(), articles, 30)
	require.NoError(t, err)

	require.Equal(t, 10, result.Summary.Total)
	require.Greater(t, result.Summary.MeanScore, 0.1)
	require.Greater(t, result.Summary.PositiveCount, result.Summary.NegativeCount)
	require.Greater(t, result.Summary.PositiveCount, result.Summary.NeutralCount)

	// A single observed day is too short for the seasonal model.
	require.True(t, result.Forecast.Fallback)
	require.NotEmpty(t, result.Insight.SentimentCommentary)
}

func TestRunEmptyInput(t *testing.T) {
	p := testPipeline(t)

	result, err := p.Run(context.Background(), nil, 30)
	require.NoError(t, err)

	require.Zero(t, result.Summary.Total)
	require.Zero(t, result.Summary.PositiveCount)
	require.Zero(t, result.Summary.NegativeCount)
	require.Zero(t, result.Summary.NeutralCount)
	require.True(t, result.Forecast.InsufficientData)
	require.NotEmpty(t, result.Insight.SentimentCommentary)
	require.NotEmpty(t, result.Insight.TrendCommentary)
}

func TestAnalyzeOscillatingMonth(t *testing.T) {
	p := testPipeline(t)
	start := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	articles := make([]models.Article, 0, 30)
	for i := 0; i < 30; i++ {
		score := 0.5
		if i%2 == 1 {
			score = -0.5
		}
		articles = append(articles, models.Article{
			PublishedAt: start.AddDate(0, 0, i),
			Sentiment:   models.Sentiment{Score: score},
		})
	}

	result, err := p.Analyze(context.Background(), articles, 30)
	require.NoError(t, err)

	require.Equal(t, models.DirectionFlat, result.Forecast.Direction)
	require.False(t, result.Forecast.Fallback)
	require.Len(t, result.Forecast.Predictions, 30)
}

func TestRunCancelled(t *testing.T) {
	p := testPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, []models.Article{{Title: "x", Body: "y"}}, 30)
	require.Error(t, err)
}

func TestBuildSummary(t *testing.T) {
	articles := []models.Article{
		{Sentiment: models.Sentiment{Score: 0.5, Label: models.LabelPositive}},
		{Sentiment: models.Sentiment{Score: -0.3, Label: models.LabelNegative}},
		{Sentiment: models.Sentiment{Score: 0.0, Label: models.LabelNeutral}},
		{Sentiment: models.Sentiment{Score: 0.2, Label: models.LabelPositive}},
	}

	summary := analysis.BuildSummary(articles)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, 2, summary.PositiveCount)
	require.Equal(t, 1, summary.NegativeCount)
	require.Equal(t, 1, summary.NeutralCount)
	require.InDelta(t, 0.1, summary.MeanScore, 1e-9)

	empty := analysis.BuildSummary(nil)
	require.Zero(t, empty.Total)
	require.Zero(t, empty.MeanScore)
}
