// Package dashboard derives the trend, rolling averages and radar views shown
// on the dashboard from a user's assessment history.
package dashboard

import (
	"sort"

	"velym/backend/internal/model"
)

// Window sizes of the rolling averages. They count records, not calendar days.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// TrendPoint is one point of the health score over time.
type TrendPoint struct {
	Date  model.Day `json:"date"`
	Score int       `json:"score"`
}

// Averages holds the mean of every answer and of the score over a window.
type Averages struct {
	SleepHours        float64 `json:"sleep_hours"`
	StressLevel       float64 `json:"stress_level"`
	ExerciseFrequency float64 `json:"exercise_frequency"`
	DietQuality       float64 `json:"diet_quality"`
	SocialConnection  float64 `json:"social_connection"`
	HealthScore       float64 `json:"health_score"`
	Count             int     `json:"count"`
}

// RadarAxis is one spoke of the radar chart. Normalized is Value/Max.
type RadarAxis struct {
	Axis       string  `json:"axis"`
	Value      float64 `json:"value"`
	Max        float64 `json:"max"`
	Normalized float64 `json:"normalized"`
}

// Summary is everything the dashboard renders from the assessment history.
type Summary struct {
	Trend       []TrendPoint      `json:"trend"`
	Latest      *model.Assessment `json:"latest"`
	Avg7        *Averages         `json:"avg7"`
	Avg30       *Averages         `json:"avg30"`
	LatestRadar []RadarAxis       `json:"latest_radar"`
	Avg7Radar   []RadarAxis       `json:"avg7_radar"`
	Suggestions Suggestions       `json:"suggestions"`
}

// Summarize builds the dashboard view of history. The input is not modified.
//
// Avg7 covers the last min(7, n) records and is nil only for an empty history.
// Avg30 is nil unless at least 30 records exist.
func Summarize(history []model.Assessment) Summary {
	sorted := make([]model.Assessment, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AssessmentDate < sorted[j].AssessmentDate
	})

	summary := Summary{Trend: make([]TrendPoint, 0, len(sorted))}
	for _, a := range sorted {
		summary.Trend = append(summary.Trend, TrendPoint{Date: a.AssessmentDate, Score: a.HealthScore})
	}

	if len(sorted) > 0 {
		latest := sorted[len(sorted)-1]
		summary.Latest = &latest
		summary.LatestRadar = Radar(
			float64(latest.SleepHours),
			float64(latest.StressLevel),
			float64(latest.ExerciseFrequency),
			float64(latest.DietQuality),
			float64(latest.SocialConnection),
		)
	}

	summary.Avg7 = average(tail(sorted, ShortWindow))
	if summary.Avg7 != nil {
		summary.Avg7Radar = Radar(
			summary.Avg7.SleepHours,
			summary.Avg7.StressLevel,
			summary.Avg7.ExerciseFrequency,
			summary.Avg7.DietQuality,
			summary.Avg7.SocialConnection,
		)
	}
	if len(sorted) >= LongWindow {
		summary.Avg30 = average(tail(sorted, LongWindow))
	}

	summary.Suggestions = Suggest(summary.Latest)
	return summary
}

// Radar maps the five answers onto the radar axes. Stress is inverted so that
// a larger area is always healthier.
func Radar(sleep, stress, exercise, diet, social float64) []RadarAxis {
	return []RadarAxis{
		axis("Sleep", sleep, 9),
		axis("Stress", 6-stress, 5),
		axis("Exercise", exercise, 5),
		axis("Diet", diet, 5),
		axis("Social", social, 5),
	}
}

func axis(name string, value, max float64) RadarAxis {
	return RadarAxis{Axis: name, Value: value, Max: max, Normalized: value / max}
}

func tail(history []model.Assessment, n int) []model.Assessment {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func average(window []model.Assessment) *Averages {
	if len(window) == 0 {
		return nil
	}
	var avg Averages
	for _, a := range window {
		avg.SleepHours += float64(a.SleepHours)
		avg.StressLevel += float64(a.StressLevel)
		avg.ExerciseFrequency += float64(a.ExerciseFrequency)
		avg.DietQuality += float64(a.DietQuality)
		avg.SocialConnection += float64(a.SocialConnection)
		avg.HealthScore += float64(a.HealthScore)
	}
	n := float64(len(window))
	avg.SleepHours /= n
	avg.StressLevel /= n
	avg.ExerciseFrequency /= n
	avg.DietQuality /= n
	avg.SocialConnection /= n
	avg.HealthScore /= n
	avg.Count = len(window)
	return &avg
}
