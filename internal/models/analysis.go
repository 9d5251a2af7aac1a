package models

import "time"

// Direction is the categorical trend judgment derived from forecast
// endpoints.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DailyPoint is one aggregated sentiment value per calendar day.
// Interpolated marks gap-fill points that carry no documents.
type DailyPoint struct {
	Date          time.Time `json:"date"`
	MeanSentiment float64   `json:"mean_sentiment"`
	DocumentCount int       `json:"document_count"`
	Interpolated  bool      `json:"interpolated,omitempty"`
}

// ForecastPoint is one predicted day with its uncertainty interval.
type ForecastPoint struct {
	Date     time.Time `json:"date"`
	Estimate float64   `json:"estimate"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// TrendForecast bundles the observed series and its projection.
// Fallback marks results produced by the linear model; callers use it
// to rank forecast quality. InsufficientData means the input series
// was empty and no projection was attempted.
type TrendForecast struct {
	History          []DailyPoint    `json:"history"`
	Predictions      []ForecastPoint `json:"predictions"`
	Direction        Direction       `json:"direction"`
	Confidence       float64         `json:"confidence"`
	Fallback         bool            `json:"fallback"`
	InsufficientData bool            `json:"insufficient_data,omitempty"`
	Horizon          int             `json:"horizon"`
}

// SentimentSummary aggregates label counts across one analysis run.
type SentimentSummary struct {
	Total         int     `json:"total"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	NeutralCount  int     `json:"neutral_count"`
	MeanScore     float64 `json:"mean_score"`
}

// InsightReport is the two-field commentary contract. Generated is
// true when an external text provider produced the prose instead of
// the built-in templates.
type InsightReport struct {
	SentimentCommentary string `json:"sentiment_commentary"`
	TrendCommentary     string `json:"trend_commentary"`
	Generated           bool   `json:"generated,omitempty"`
}
