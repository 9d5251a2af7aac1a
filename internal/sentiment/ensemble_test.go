package sentiment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/market-pulse/backend/internal/models"
	"github.com/market-pulse/backend/internal/sentiment"
)

type fixedScorer struct {
	name  string
	value float64
	err   error
}

func (s fixedScorer) Name() string { return s.name }

func (s fixedScorer) Score(_ context.Context, _ string) (float64, error) {
	return s.value, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsembleFusesMean(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.4},
		fixedScorer{name: "b", value: 0.6},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "some text")
	require.InDelta(t, 0.5, got.Score, 1e-9)
	require.Equal(t, models.LabelPositive, got.Label)
	require.Equal(t, 2, got.ScorerCount)
	require.False(t, got.Failed)
	// Agreeing scorers keep confidence high: 1 - stddev(0.4, 0.6) = 0.9.
	require.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestEnsembleConfidenceDropsWithDisagreement(t *testing.T) {
	agree := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.5},
		fixedScorer{name: "b", value: 0.5},
	}, 0.1, -0.1, discardLogger())
	disagree := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.9},
		fixedScorer{name: "b", value: -0.9},
	}, 0.1, -0.1, discardLogger())

	high := agree.Score(context.Background(), "text")
	low := disagree.Score(context.Background(), "text")

	require.InDelta(t, 1.0, high.Confidence, 1e-9)
	require.Less(t, low.Confidence, high.Confidence)
	require.GreaterOrEqual(t, low.Confidence, 0.0)
}

func TestEnsembleSingleScorerConfidence(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "only", value: 0.3},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "text")
	require.Equal(t, 1, got.ScorerCount)
	require.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestEnsembleExcludesFailingScorer(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "ok", value: -0.6},
		fixedScorer{name: "broken", err: errors.New("boom")},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "text")
	require.False(t, got.Failed)
	require.Equal(t, 1, got.ScorerCount)
	require.InDelta(t, -0.6, got.Score, 1e-9)
	require.Equal(t, models.LabelNegative, got.Label)
}

func TestEnsembleAllScorersFail(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", err: errors.New("x")},
		fixedScorer{name: "b", err: errors.New("y")},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "text")
	require.True(t, got.Failed)
	require.Equal(t, models.LabelNeutral, got.Label)
	require.Zero(t, got.Score)
	require.Zero(t, got.ScorerCount)
}

func TestEnsembleEmptyText(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.9},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "   ")
	require.Equal(t, models.LabelNeutral, got.Label)
	require.Zero(t, got.Score)
	require.Zero(t, got.Confidence)
	require.False(t, got.Failed)
}

func TestEnsembleRecordsExternalScore(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "lexicon", value: 0.2},
		fixedScorer{name: "external", value: 0.8},
	}, 0.1, -0.1, discardLogger())

	got := e.Score(context.Background(), "text")
	require.NotNil(t, got.ExternalScore)
	require.InDelta(t, 0.8, *got.ExternalScore, 1e-9)
}

func TestEnsembleLabelThresholds(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0},
	}, 0.25, -0.25, discardLogger())

	tests := []struct {
		value float64
		want  models.Label
	}{
		{0.3, models.LabelPositive},
		{0.25, models.LabelNeutral},
		{0.0, models.LabelNeutral},
		{-0.25, models.LabelNeutral},
		{-0.3, models.LabelNegative},
	}

	for _, tt := range tests {
		e = sentiment.NewEnsemble([]sentiment.Scorer{
			fixedScorer{name: "a", value: tt.value},
		}, 0.25, -0.25, discardLogger())
		got := e.Score(context.Background(), "text")
		require.Equal(t, tt.want, got.Label, "value %v", tt.value)
	}
}

func TestScoreBatchPreservesOrder(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.5},
	}, 0.1, -0.1, discardLogger())

	articles := []models.Article{
		{ID: "1", CleanTitle: "first"},
		{ID: "2", CleanTitle: "second"},
		{ID: "3", CleanTitle: "third"},
	}

	scored, err := e.ScoreBatch(context.Background(), articles)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	for i, a := range scored {
		require.Equal(t, articles[i].ID, a.ID)
		require.Equal(t, models.LabelPositive, a.Sentiment.Label)
	}
}

func TestScoreBatchStopsOnCancellation(t *testing.T) {
	e := sentiment.NewEnsemble([]sentiment.Scorer{
		fixedScorer{name: "a", value: 0.5},
	}, 0.1, -0.1, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scored, err := e.ScoreBatch(ctx, []models.Article{{ID: "1"}, {ID: "2"}})
	require.Error(t, err)
	require.Empty(t, scored)
}
