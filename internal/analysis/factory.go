package analysis

import (
	"errors"
	"log/slog"

	"github.com/market-pulse/backend/internal/aiprovider"
	"github.com/market-pulse/backend/internal/config"
	"github.com/market-pulse/backend/internal/insight"
	"github.com/market-pulse/backend/internal/sentiment"
	"github.com/market-pulse/backend/internal/trend"
)

// BuildEnsemble assembles the configured scorers. The external scorer
// only joins when a provider resolves; a provider config error is
// fatal here because it means explicit misconfiguration, not outage.
func BuildEnsemble(cfg config.Analysis, log *slog.Logger) (*sentiment.Ensemble, error) {
	lexicons, err := sentiment.LoadLexicons(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}

	var scorers []sentiment.Scorer
	if cfg.EnableLexicon {
		scorers = append(scorers, sentiment.NewLexiconScorer(lexicons))
	}
	if cfg.EnableIntensity {
		scorers = append(scorers, sentiment.NewIntensityScorer(lexicons))
	}

	client, err := aiprovider.New(cfg.AIProvider)
	if err != nil {
		return nil, err
	}
	if client != nil {
		scorers = append(scorers, sentiment.NewRemoteScorer(client))
		log.Info("external scorer enabled", slog.String("provider", client.Name()))
	}

	if len(scorers) == 0 {
		return nil, errors.New("no sentiment scorers enabled")
	}

	return sentiment.NewEnsemble(scorers, cfg.PositiveThreshold, cfg.NegativeThreshold, log), nil
}

// NewFromConfig wires a complete pipeline from the analysis config.
func NewFromConfig(cfg config.Analysis, log *slog.Logger) (*Pipeline, error) {
	ensemble, err := BuildEnsemble(cfg, log)
	if err != nil {
		return nil, err
	}

	estimator := trend.NewEstimator()
	estimator.MinDays = cfg.MinSeriesDays
	estimator.DefaultHorizon = cfg.Horizon

	client, err := aiprovider.New(cfg.AIProvider)
	if err != nil {
		return nil, err
	}
	var gen insight.Generator
	if client != nil {
		gen = client
	}

	return NewPipeline(ensemble, estimator, insight.NewSummarizer(gen, log), log), nil
}
