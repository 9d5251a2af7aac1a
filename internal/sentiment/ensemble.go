package sentiment

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/market-pulse/backend/internal/models"
)

// Single-scorer runs carry no disagreement signal, so confidence is
// pinned rather than reported as perfect.
const singleScorerConfidence = 0.8

// Ensemble fuses independent scorer outputs into one labeled score.
// A failing scorer is excluded from the fusion; only when every scorer
// fails does the result carry the Failed flag.
type Ensemble struct {
	scorers      []Scorer
	posThreshold float64
	negThreshold float64
	log          *slog.Logger
}

// NewEnsemble wires the scorers with the label thresholds. Thresholds
// at zero fall back to the ±0.1 defaults.
func NewEnsemble(scorers []Scorer, posThreshold, negThreshold float64, log *slog.Logger) *Ensemble {
	if posThreshold == 0 {
		posThreshold = 0.1
	}
	if negThreshold == 0 {
		negThreshold = -0.1
	}
	return &Ensemble{
		scorers:      scorers,
		posThreshold: posThreshold,
		negThreshold: negThreshold,
		log:          log,
	}
}

// Score fuses all scorer outputs for one text.
func (e *Ensemble) Score(ctx context.Context, text string) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.Sentiment{Label: models.LabelNeutral}
	}

	scores := make([]float64, 0, len(e.scorers))
	var external *float64

	for _, scorer := range e.scorers {
		value, err := scorer.Score(ctx, text)
		if err != nil {
			e.log.Debug("scorer excluded from fusion",
				slog.String("scorer", scorer.Name()),
				slog.Any("err", err),
			)
			continue
		}
		scores = append(scores, value)
		if scorer.Name() == "external" {
			v := value
			external = &v
		}
	}

	if len(scores) == 0 {
		return models.Sentiment{Label: models.LabelNeutral, Failed: true}
	}

	score := mean(scores)
	confidence := singleScorerConfidence
	if len(scores) > 1 {
		confidence = clamp(1-stddev(scores), 0, 1)
	}

	return models.Sentiment{
		Score:         score,
		Confidence:    confidence,
		Label:         e.label(score),
		ExternalScore: external,
		ScorerCount:   len(scores),
	}
}

// ScoreArticle fills the article's Sentiment from its cleaned fields.
func (e *Ensemble) ScoreArticle(ctx context.Context, article models.Article) models.Article {
	article.Sentiment = e.Score(ctx, article.AnalysisText())
	return article
}

// ScoreBatch scores articles in input order. A cancellation between
// elements stops the batch; a failure inside one document never does.
func (e *Ensemble) ScoreBatch(ctx context.Context, articles []models.Article) ([]models.Article, error) {
	scored := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return scored, err
		}
		scored = append(scored, e.ScoreArticle(ctx, article))
	}
	return scored, nil
}

func (e *Ensemble) label(score float64) models.Label {
	switch {
	case score > e.posThreshold:
		return models.LabelPositive
	case score < e.negThreshold:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}
