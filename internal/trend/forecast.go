package trend

import (
	"math"

	"github.com/market-pulse/backend/internal/models"
)

const (
	// interval width multiplier for the primary model (~95%)
	primaryIntervalZ = 1.96
	// fallback intervals are a fixed fraction of the residual spread
	fallbackIntervalFraction = 0.5
	// floor for fallback spread so intervals never collapse to a line
	fallbackMinSpread = 0.05
	// fallback results never rank above primary ones
	fallbackMaxConfidence = 0.5
)

// Estimator holds the forecast policy knobs.
type Estimator struct {
	// MinDays is the minimum number of observed (non-interpolated)
	// days required before the seasonal model is attempted.
	MinDays int
	// DirectionEpsilon is the per-day trend slope magnitude below
	// which the direction is reported as flat.
	DirectionEpsilon float64
	// DefaultHorizon is used when the caller passes horizon <= 0.
	DefaultHorizon int
}

// NewEstimator applies the default policy: at least 7 observed days
// for the primary model, a 0.02 flatness band, a 30-day horizon.
func NewEstimator() *Estimator {
	return &Estimator{MinDays: 7, DirectionEpsilon: 0.02, DefaultHorizon: 30}
}

// Forecast projects the daily series `horizon` days past its end.
// The decision between the seasonal model and the linear fallback is a
// precondition check, not an error path: enough observed days and
// non-zero variance selects the primary model, anything else the
// fallback. An empty series yields an explicit insufficient-data
// result instead of an error.
func (e *Estimator) Forecast(series []models.DailyPoint, horizon int) models.TrendForecast {
	if horizon <= 0 {
		horizon = e.DefaultHorizon
	}

	if len(series) == 0 {
		return models.TrendForecast{
			History:          []models.DailyPoint{},
			Predictions:      []models.ForecastPoint{},
			Direction:        models.DirectionFlat,
			InsufficientData: true,
			Horizon:          horizon,
		}
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.MeanSentiment
	}
	slope, intercept := fitLine(values)

	observed := 0
	observedValues := make([]float64, 0, len(series))
	for _, p := range series {
		if !p.Interpolated {
			observed++
			observedValues = append(observedValues, p.MeanSentiment)
		}
	}

	usePrimary := observed >= e.MinDays && variance(observedValues) > 0

	var (
		seasonal [7]float64
		spread   float64
	)
	if usePrimary {
		seasonal = weekdayOffsets(series, slope, intercept)
		spread = residualStddev(series, slope, intercept, seasonal)
	} else {
		spread = residualStddev(series, slope, intercept, [7]float64{})
		if spread < fallbackMinSpread {
			spread = fallbackMinSpread
		}
	}

	lastDate := series[len(series)-1].Date
	predictions := make([]models.ForecastPoint, 0, horizon)
	for k := 1; k <= horizon; k++ {
		idx := float64(len(series)-1) + float64(k)
		date := lastDate.AddDate(0, 0, k)

		estimate := intercept + slope*idx
		interval := fallbackIntervalFraction * spread
		if usePrimary {
			estimate += seasonal[int(date.Weekday())]
			interval = primaryIntervalZ * spread
		}

		predictions = append(predictions, models.ForecastPoint{
			Date:     date,
			Estimate: estimate,
			Lower:    estimate - interval,
			Upper:    estimate + interval,
		})
	}

	confidence := clamp(1-(predictions[0].Upper-predictions[0].Lower)/2, 0, 1)
	if !usePrimary && confidence > fallbackMaxConfidence {
		confidence = fallbackMaxConfidence
	}

	return models.TrendForecast{
		History:     series,
		Predictions: predictions,
		Direction:   e.direction(slope),
		Confidence:  confidence,
		Fallback:    !usePrimary,
		Horizon:     horizon,
	}
}

// direction classifies the per-day trend slope against the flatness
// band. Seasonal wiggles are deliberately excluded, and so is the
// horizon length: an oscillating series with no real drift stays flat
// no matter how far out the projection runs.
func (e *Estimator) direction(slope float64) models.Direction {
	switch {
	case slope > e.DirectionEpsilon:
		return models.DirectionUp
	case slope < -e.DirectionEpsilon:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}

// fitLine least-squares fits y = intercept + slope*i over the series
// index. A single point degenerates to a flat line through it.
func fitLine(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) == 1 {
		return 0, values[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// weekdayOffsets averages the detrended residuals per weekday and
// centers them so the seasonal component adds no drift of its own.
func weekdayOffsets(series []models.DailyPoint, slope, intercept float64) [7]float64 {
	var sums [7]float64
	var counts [7]int

	for i, p := range series {
		residual := p.MeanSentiment - (intercept + slope*float64(i))
		wd := int(p.Date.Weekday())
		sums[wd] += residual
		counts[wd]++
	}

	var offsets [7]float64
	var total float64
	filled := 0
	for wd := range offsets {
		if counts[wd] > 0 {
			offsets[wd] = sums[wd] / float64(counts[wd])
			total += offsets[wd]
			filled++
		}
	}
	if filled == 0 {
		return offsets
	}

	center := total / float64(filled)
	for wd := range offsets {
		if counts[wd] > 0 {
			offsets[wd] -= center
		}
	}
	return offsets
}

func residualStddev(series []models.DailyPoint, slope, intercept float64, seasonal [7]float64) float64 {
	if len(series) < 2 {
		return 0
	}
	var sum float64
	for i, p := range series {
		fitted := intercept + slope*float64(i) + seasonal[int(p.Date.Weekday())]
		r := p.MeanSentiment - fitted
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(series)))
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var m float64
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))

	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
