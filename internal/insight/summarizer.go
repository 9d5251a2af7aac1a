// Package insight turns aggregate sentiment and trend output into the
// two-field commentary contract. Templates always produce a result; an
// external text provider, when configured, may replace them with
// richer prose but never changes the shape of the report.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/market-pulse/backend/internal/models"
)

// Generator is the external text contract. A nil Generator means
// template-only operation.
type Generator interface {
	Name() string
	GenerateCommentary(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	gen Generator
	log *slog.Logger
}

func NewSummarizer(gen Generator, log *slog.Logger) *Summarizer {
	return &Summarizer{gen: gen, log: log}
}

// Summarize builds the insight report. Provider errors degrade to the
// template text silently (logged, not surfaced).
func (s *Summarizer) Summarize(ctx context.Context, summary models.SentimentSummary, forecast models.TrendForecast) models.InsightReport {
	report := models.InsightReport{
		SentimentCommentary: sentimentCommentary(summary),
		TrendCommentary:     trendCommentary(forecast),
	}

	if s.gen == nil {
		return report
	}

	text, err := s.gen.GenerateCommentary(ctx, buildPrompt(summary, forecast))
	if err != nil {
		s.log.Warn("text provider failed, using template commentary",
			slog.String("provider", s.gen.Name()),
			slog.Any("err", err),
		)
		return report
	}

	sentiment, trend, ok := parseGenerated(text)
	if !ok {
		s.log.Warn("text provider reply unusable, using template commentary",
			slog.String("provider", s.gen.Name()),
		)
		return report
	}

	report.SentimentCommentary = sentiment
	report.TrendCommentary = trend
	report.Generated = true
	return report
}

func sentimentCommentary(summary models.SentimentSummary) string {
	if summary.Total == 0 {
		return "No documents were analyzed in this window."
	}

	dominant := "mixed"
	share := 0
	switch {
	case summary.PositiveCount > summary.NegativeCount && summary.PositiveCount > summary.NeutralCount:
		dominant = "predominantly positive"
		share = summary.PositiveCount
	case summary.NegativeCount > summary.PositiveCount && summary.NegativeCount > summary.NeutralCount:
		dominant = "predominantly negative"
		share = summary.NegativeCount
	case summary.NeutralCount >= summary.PositiveCount && summary.NeutralCount >= summary.NegativeCount:
		dominant = "largely neutral"
		share = summary.NeutralCount
	}

	return fmt.Sprintf("Coverage is %s (%d of %d articles), mean sentiment %.2f.",
		dominant, share, summary.Total, summary.MeanScore)
}

func trendCommentary(forecast models.TrendForecast) string {
	if forecast.InsufficientData {
		return "Not enough history to project a sentiment trend."
	}

	var movement string
	switch forecast.Direction {
	case models.DirectionUp:
		movement = "rise"
	case models.DirectionDown:
		movement = "decline"
	default:
		movement = "stay stable"
	}

	text := fmt.Sprintf("Sentiment is projected to %s over the next %d days with %s confidence.",
		movement, forecast.Horizon, confidenceBucket(forecast.Confidence))
	if forecast.Fallback {
		text += " The projection comes from the linear fallback model."
	}
	return text
}

func confidenceBucket(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.4:
		return "moderate"
	default:
		return "low"
	}
}

func buildPrompt(summary models.SentimentSummary, forecast models.TrendForecast) string {
	var b strings.Builder
	b.WriteString("You are a market news analyst. Based on the statistics below, ")
	b.WriteString("write a short report as exactly two lines, one starting with \"Sentiment:\" ")
	b.WriteString("and one starting with \"Trend:\".\n\n")
	fmt.Fprintf(&b, "Articles analyzed: %d (positive %d, negative %d, neutral %d)\n",
		summary.Total, summary.PositiveCount, summary.NegativeCount, summary.NeutralCount)
	fmt.Fprintf(&b, "Mean sentiment score: %.3f\n", summary.MeanScore)
	fmt.Fprintf(&b, "Forecast direction over %d days: %s (confidence %.2f)\n",
		forecast.Horizon, forecast.Direction, forecast.Confidence)
	if forecast.Fallback {
		b.WriteString("Forecast quality: linear fallback model\n")
	}
	return b.String()
}

// parseGenerated extracts the two labeled lines the prompt asks for.
func parseGenerated(text string) (sentiment, trend string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if after, found := strings.CutPrefix(line, "Sentiment:"); found {
			sentiment = strings.TrimSpace(after)
		}
		if after, found := strings.CutPrefix(line, "Trend:"); found {
			trend = strings.TrimSpace(after)
		}
	}
	return sentiment, trend, sentiment != "" && trend != ""
}
