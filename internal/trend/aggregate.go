// Package trend turns per-document sentiment into a daily series and
// projects it forward. The primary model decomposes the series into a
// linear trend plus day-of-week seasonality; when the series is too
// short or flat for that, a plain linear fit takes over and the result
// is flagged so callers can rank its quality.
package trend

import (
	"sort"
	"time"

	"github.com/market-pulse/backend/internal/models"
)

// Aggregate groups scored articles by calendar day (UTC) and returns a
// contiguous daily series: dates strictly increasing, gaps filled by
// linear interpolation with a zero document count. Articles without a
// publish date are skipped.
func Aggregate(articles []models.Article) []models.DailyPoint {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[time.Time]*bucket)
	for _, a := range articles {
		if a.PublishedAt.IsZero() {
			continue
		}
		day := truncateDay(a.PublishedAt)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += a.Sentiment.Score
		b.count++
	}

	if len(buckets) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first, last := days[0], days[len(days)-1]
	total := int(last.Sub(first).Hours()/24) + 1

	series := make([]models.DailyPoint, 0, total)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if b, ok := buckets[day]; ok {
			series = append(series, models.DailyPoint{
				Date:          day,
				MeanSentiment: b.sum / float64(b.count),
				DocumentCount: b.count,
			})
			continue
		}
		series = append(series, models.DailyPoint{Date: day, Interpolated: true})
	}

	interpolateGaps(series)
	return series
}

// interpolateGaps fills the MeanSentiment of interpolated points by
// linear interpolation between the surrounding observed days. The
// first and last points are always observed by construction.
func interpolateGaps(series []models.DailyPoint) {
	prev := 0
	for i := 1; i < len(series); i++ {
		if series[i].Interpolated {
			continue
		}
		gap := i - prev
		if gap > 1 {
			step := (series[i].MeanSentiment - series[prev].MeanSentiment) / float64(gap)
			for k := prev + 1; k < i; k++ {
				series[k].MeanSentiment = series[prev].MeanSentiment + step*float64(k-prev)
			}
		}
		prev = i
	}
}

func truncateDay(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
