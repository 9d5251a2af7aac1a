package trend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/market-pulse/backend/internal/models"
	"github.com/market-pulse/backend/internal/trend"
)

func seriesOf(start time.Time, values ...float64) []models.DailyPoint {
	series := make([]models.DailyPoint, len(values))
	for i, v := range values {
		series[i] = models.DailyPoint{
			Date:          start.AddDate(0, 0, i),
			MeanSentiment: v,
			DocumentCount: 1,
		}
	}
	return series
}

func TestForecastEmptySeries(t *testing.T) {
	e := trend.NewEstimator()

	got := e.Forecast(nil, 14)
	require.True(t, got.InsufficientData)
	require.Equal(t, models.DirectionFlat, got.Direction)
	require.Empty(t, got.Predictions)
	require.Equal(t, 14, got.Horizon)
}

func TestForecastPrimaryModel(t *testing.T) {
	e := trend.NewEstimator()
	start := day(2024, 3, 1)
	series := seriesOf(start, 0.10, 0.22, 0.15, 0.30, 0.25, 0.40, 0.35, 0.50, 0.45, 0.60)

	got := e.Forecast(series, 7)
	require.False(t, got.Fallback)
	require.False(t, got.InsufficientData)
	require.Len(t, got.Predictions, 7)
	require.Equal(t, models.DirectionUp, got.Direction)
	require.Greater(t, got.Confidence, 0.0)

	// Predictions continue day by day past the series end.
	for i, p := range got.Predictions {
		require.Equal(t, start.AddDate(0, 0, len(series)+i), p.Date)
		require.LessOrEqual(t, p.Lower, p.Estimate)
		require.GreaterOrEqual(t, p.Upper, p.Estimate)
	}
}

func TestForecastFallbackOnShortSeries(t *testing.T) {
	e := trend.NewEstimator()
	series := seriesOf(day(2024, 3, 1), 0.1, 0.3, 0.2)

	got := e.Forecast(series, 5)
	require.True(t, got.Fallback)
	require.False(t, got.InsufficientData)
	require.Len(t, got.Predictions, 5)
	require.LessOrEqual(t, got.Confidence, 0.5)
}

func TestForecastFallbackOnZeroVariance(t *testing.T) {
	e := trend.NewEstimator()
	series := seriesOf(day(2024, 3, 1), 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2, 0.2)

	got := e.Forecast(series, 5)
	require.True(t, got.Fallback)
	require.Equal(t, models.DirectionFlat, got.Direction)
}

func TestForecastFallbackIgnoresInterpolatedDays(t *testing.T) {
	e := trend.NewEstimator()
	// Ten calendar days but only four observed ones.
	series := seriesOf(day(2024, 3, 1), 0.1, 0.15, 0.2, 0.25, 0.3, 0.35, 0.4, 0.45, 0.5, 0.55)
	for i := range series {
		if i%3 != 0 {
			series[i].Interpolated = true
			series[i].DocumentCount = 0
		}
	}

	got := e.Forecast(series, 5)
	require.True(t, got.Fallback)
}

func TestForecastDirection(t *testing.T) {
	e := trend.NewEstimator()
	start := day(2024, 3, 1)

	up := make([]float64, 10)
	down := make([]float64, 10)
	for i := range up {
		up[i] = float64(i) * 0.05
		down[i] = -float64(i) * 0.05
	}

	require.Equal(t, models.DirectionUp, e.Forecast(seriesOf(start, up...), 7).Direction)
	require.Equal(t, models.DirectionDown, e.Forecast(seriesOf(start, down...), 7).Direction)
}

func TestForecastOscillationIsFlat(t *testing.T) {
	e := trend.NewEstimator()
	values := make([]float64, 30)
	for i := range values {
		values[i] = 0.5
		if i%2 == 1 {
			values[i] = -0.5
		}
	}

	got := e.Forecast(seriesOf(day(2024, 3, 1), values...), 30)
	require.False(t, got.Fallback)
	require.Equal(t, models.DirectionFlat, got.Direction)
}

func TestForecastDefaultHorizon(t *testing.T) {
	e := trend.NewEstimator()
	series := seriesOf(day(2024, 3, 1), 0.1, 0.2, 0.3)

	got := e.Forecast(series, 0)
	require.Len(t, got.Predictions, e.DefaultHorizon)
	require.Equal(t, e.DefaultHorizon, got.Horizon)
}
