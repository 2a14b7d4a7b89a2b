package model

import (
	"fmt"
	"time"
)

// DayLayout is the storage and wire format of a calendar day.
const DayLayout = "2006-01-02"

// Day is a calendar day with no time-of-day or zone component.
type Day string

// DayOf returns the calendar day of t as seen on the wall clock of t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay validates s as a YYYY-MM-DD calendar day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

func (d Day) String() string { return string(d) }

// Sleep hour buckets offered by the assessment form.
const (
	SleepUnder5 = 4
	Sleep5To6   = 5
	Sleep7To8   = 8
	SleepOver8  = 9
)

// Answers is a complete set of assessment answers. Every field is required;
// use scoring.Input to build one from possibly incomplete form data.
type Answers struct {
	SleepHours        int `json:"sleep_hours"`
	StressLevel       int `json:"stress_level"`
	ExerciseFrequency int `json:"exercise_frequency"`
	DietQuality       int `json:"diet_quality"`
	SocialConnection  int `json:"social_connection"`
}

// Assessment is a single user's answers for one calendar day.
type Assessment struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	AssessmentDate Day    `json:"assessment_date"`
	Answers
	HealthScore int       `json:"health_score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
