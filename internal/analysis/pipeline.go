// Package analysis wires the per-run pipeline: normalize documents,
// score them through the ensemble, aggregate into a daily series,
// forecast the trend and summarize. All run state lives in the Result;
// nothing is shared across runs.
package analysis

import (
	"context"
	"log/slog"

	"github.com/market-pulse/backend/internal/insight"
	"github.com/market-pulse/backend/internal/models"
	"github.com/market-pulse/backend/internal/sentiment"
	"github.com/market-pulse/backend/internal/textnorm"
	"github.com/market-pulse/backend/internal/trend"
)

type Pipeline struct {
	ensemble   *sentiment.Ensemble
	estimator  *trend.Estimator
	summarizer *insight.Summarizer
	log        *slog.Logger
}

// Result is the full output of one analysis run.
type Result struct {
	Articles []models.Article        `json:"articles"`
	Summary  models.SentimentSummary `json:"summary"`
	Forecast models.TrendForecast    `json:"forecast"`
	Insight  models.InsightReport    `json:"insight"`
}

func NewPipeline(ensemble *sentiment.Ensemble, estimator *trend.Estimator, summarizer *insight.Summarizer, log *slog.Logger) *Pipeline {
	return &Pipeline{
		ensemble:   ensemble,
		estimator:  estimator,
		summarizer: summarizer,
		log:        log,
	}
}

// Run processes raw documents end to end. The only error it returns is
// the context's: component failures degrade the result instead of
// aborting it. An empty input yields a zero-count summary and an
// insufficient-data forecast.
func (p *Pipeline) Run(ctx context.Context, articles []models.Article, horizon int) (Result, error) {
	normalized := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		normalized = append(normalized, textnorm.Normalize(a))
	}

	scored, err := p.ensemble.ScoreBatch(ctx, normalized)
	if err != nil {
		return Result{}, err
	}

	return p.Analyze(ctx, scored, horizon)
}

// Analyze derives summary, forecast and insight from already scored
// records, the path used when records come back out of the index.
func (p *Pipeline) Analyze(ctx context.Context, scored []models.Article, horizon int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	summary := BuildSummary(scored)
	series := trend.Aggregate(scored)
	forecast := p.estimator.Forecast(series, horizon)
	report := p.summarizer.Summarize(ctx, summary, forecast)

	p.log.Info("analysis run completed",
		slog.Int("articles", len(scored)),
		slog.Int("series_days", len(series)),
		slog.String("direction", string(forecast.Direction)),
		slog.Bool("fallback", forecast.Fallback),
	)

	return Result{
		Articles: scored,
		Summary:  summary,
		Forecast: forecast,
		Insight:  report,
	}, nil
}

// BuildSummary counts labels and averages scores across the run.
func BuildSummary(articles []models.Article) models.SentimentSummary {
	summary := models.SentimentSummary{Total: len(articles)}
	if len(articles) == 0 {
		return summary
	}

	var sum float64
	for _, a := range articles {
		sum += a.Sentiment.Score
		switch a.Sentiment.Label {
		case models.LabelPositive:
			summary.PositiveCount++
		case models.LabelNegative:
			summary.NegativeCount++
		default:
			summary.NeutralCount++
		}
	}
	summary.MeanScore = sum / float64(len(articles))
	return summary
}
