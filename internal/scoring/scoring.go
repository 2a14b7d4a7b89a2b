// Package scoring turns the five daily assessment answers into a 0-100
// health score.
package scoring

import (
	"fmt"
	"slices"
	"strings"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
)

// MaxScore is the upper bound of a health score.
const MaxScore = 100

// ErrIncomplete is returned when one or more answers are missing.
var ErrIncomplete = fmt.Errorf("%w: all five assessment answers are required", app_errors.ErrValidation)

// Allowed option values for each answer.
var (
	SleepOptions    = []int{model.SleepUnder5, model.Sleep5To6, model.Sleep7To8, model.SleepOver8}
	StressOptions   = []int{1, 2, 3, 4, 5}
	ExerciseOptions = []int{0, 1, 3, 5}
	DietOptions     = []int{1, 2, 3, 4, 5}
	SocialOptions   = []int{1, 2, 3, 4, 5}
)

// Input is the raw form data of an assessment. A nil field means the question
// was not answered.
type Input struct {
	SleepHours        *int `json:"sleep_hours"`
	StressLevel       *int `json:"stress_level"`
	ExerciseFrequency *int `json:"exercise_frequency"`
	DietQuality       *int `json:"diet_quality"`
	SocialConnection  *int `json:"social_connection"`
}

// Answers converts the input into a complete answer set. It never substitutes
// defaults: a missing answer yields ErrIncomplete and a value outside its
// option set yields a validation error.
func (in Input) Answers() (model.Answers, error) {
	fields := []struct {
		name    string
		value   *int
		options []int
	}{
		{"sleep_hours", in.SleepHours, SleepOptions},
		{"stress_level", in.StressLevel, StressOptions},
		{"exercise_frequency", in.ExerciseFrequency, ExerciseOptions},
		{"diet_quality", in.DietQuality, DietOptions},
		{"social_connection", in.SocialConnection, SocialOptions},
	}

	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return model.Answers{}, fmt.Errorf("%w (missing: %s)", ErrIncomplete, strings.Join(missing, ", "))
	}

	for _, f := range fields {
		if !slices.Contains(f.options, *f.value) {
			return model.Answers{}, fmt.Errorf("%w: %s must be one of %v, got %d", app_errors.ErrValidation, f.name, f.options, *f.value)
		}
	}

	return model.Answers{
		SleepHours:        *in.SleepHours,
		StressLevel:       *in.StressLevel,
		ExerciseFrequency: *in.ExerciseFrequency,
		DietQuality:       *in.DietQuality,
		SocialConnection:  *in.SocialConnection,
	}, nil
}

// Score computes the weighted health score of a complete answer set.
//
//	sleep:    20 for 7-9 hours, 10 for 5-7 hours, 5 otherwise
//	stress:   (5 - level) * 5
//	exercise: frequency * 4
//	diet:     quality * 4
//	social:   connection * 4
func Score(a model.Answers) int {
	total := sleepPoints(a.SleepHours) +
		(5-a.StressLevel)*5 +
		a.ExerciseFrequency*4 +
		a.DietQuality*4 +
		a.SocialConnection*4
	return min(total, MaxScore)
}

// Compute validates the input and scores it in one step.
func Compute(in Input) (model.Answers, int, error) {
	answers, err := in.Answers()
	if err != nil {
		return model.Answers{}, 0, err
	}
	return answers, Score(answers), nil
}

func sleepPoints(hours int) int {
	switch {
	case hours >= 7 && hours <= 9:
		return 20
	case hours >= 5 && hours < 7:
		return 10
	default:
		return 5
	}
}
