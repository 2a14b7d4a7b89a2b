package dashboard

import "velym/backend/internal/model"

const noData = "No data yet"

// Suggestions are the short hints shown under each headline stat.
type Suggestions struct {
	HealthScore string `json:"health_score"`
	Exercise    string `json:"exercise_frequency"`
	Sleep       string `json:"sleep_hours"`
	Stress      string `json:"stress_level"`
}

// Suggest returns the hints for the latest assessment, or "No data yet" for
// every stat when there is none.
func Suggest(latest *model.Assessment) Suggestions {
	if latest == nil {
		return Suggestions{HealthScore: noData, Exercise: noData, Sleep: noData, Stress: noData}
	}
	return Suggestions{
		HealthScore: scoreHint(latest.HealthScore),
		Exercise:    exerciseHint(latest.ExerciseFrequency),
		Sleep:       sleepHint(latest.SleepHours),
		Stress:      stressHint(latest.StressLevel),
	}
}

func scoreHint(v int) string {
	switch {
	case v >= 80:
		return "Excellent health score, keep it up!"
	case v >= 60:
		return "Good, but room for improvement."
	default:
		return "Focus on healthier habits to boost your score."
	}
}

func exerciseHint(v int) string {
	switch {
	case v >= 4:
		return "Great exercise routine!"
	case v >= 2:
		return "Try to be more consistent."
	default:
		return "Aim for regular physical activity."
	}
}

func sleepHint(v int) string {
	switch {
	case v >= 7 && v <= 9:
		return "Optimal sleep range."
	case v < 6:
		return "Consider improving sleep quality."
	default:
		return "Good, but avoid oversleeping."
	}
}

func stressHint(v int) string {
	switch {
	case v <= 2:
		return "Stress well managed."
	case v == 3:
		return "Moderate stress, stay mindful."
	default:
		return "High stress, consider relaxation techniques."
	}
}
