package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"velym/backend/internal/model"
)

const assessmentColumns = "id, user_id, assessment_date, sleep_hours, stress_level, exercise_frequency, diet_quality, social_connection, health_score, created_at, updated_at"

// UpsertAssessment runs select-then-write in one transaction. The database is
// opened with immediate transactions, so concurrent submissions for the same
// day are serialised and the later one overwrites the earlier one. If the
// insert still loses a race on the unique (user_id, assessment_date) index it
// falls back to updating the winning row.
func (r *sqliteRepository) UpsertAssessment(ctx context.Context, a *model.Assessment) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created := false
	existingID, err := findAssessmentID(ctx, tx, a.UserID, a.AssessmentDate)
	switch {
	case errors.Is(err, ErrNotFound):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO health_assessments ("+assessmentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.UserID, string(a.AssessmentDate),
			a.SleepHours, a.StressLevel, a.ExerciseFrequency, a.DietQuality, a.SocialConnection,
			a.HealthScore, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
		if err == nil {
			created = true
			break
		}
		if !isUniqueViolation(err) {
			return false, fmt.Errorf("could not insert assessment: %w", err)
		}
		if existingID, err = findAssessmentID(ctx, tx, a.UserID, a.AssessmentDate); err != nil {
			return false, err
		}
		fallthrough
	case err == nil:
		a.ID = existingID
		_, err = tx.ExecContext(ctx, `
			UPDATE health_assessments
			SET sleep_hours = ?, stress_level = ?, exercise_frequency = ?, diet_quality = ?,
			    social_connection = ?, health_score = ?, updated_at = ?
			WHERE id = ?`,
			a.SleepHours, a.StressLevel, a.ExerciseFrequency, a.DietQuality,
			a.SocialConnection, a.HealthScore, a.UpdatedAt.UTC(), a.ID)
		if err != nil {
			return false, fmt.Errorf("could not update assessment: %w", err)
		}
	default:
		return false, err
	}

	if !created {
		if err := tx.QueryRowContext(ctx, "SELECT created_at FROM health_assessments WHERE id = ?", a.ID).Scan(&a.CreatedAt); err != nil {
			return false, fmt.Errorf("could not read assessment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not commit assessment: %w", err)
	}
	return created, nil
}

func findAssessmentID(ctx context.Context, tx *sql.Tx, userID string, day model.Day) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM health_assessments WHERE user_id = ? AND assessment_date = ?",
		userID, string(day)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("could not look up assessment: %w", err)
	}
	return id, nil
}

func (r *sqliteRepository) GetAssessmentByDate(ctx context.Context, userID string, day model.Day) (*model.Assessment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+assessmentColumns+" FROM health_assessments WHERE user_id = ? AND assessment_date = ?",
		userID, string(day))
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *sqliteRepository) ListAssessments(ctx context.Context, userID string) ([]model.Assessment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+assessmentColumns+" FROM health_assessments WHERE user_id = ? ORDER BY assessment_date ASC",
		userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	assessments := []model.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, *a)
	}
	return assessments, rows.Err()
}

func (r *sqliteRepository) DeleteAssessments(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM health_assessments WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(s scanner) (*model.Assessment, error) {
	var a model.Assessment
	var day string
	err := s.Scan(&a.ID, &a.UserID, &day,
		&a.SleepHours, &a.StressLevel, &a.ExerciseFrequency, &a.DietQuality, &a.SocialConnection,
		&a.HealthScore, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AssessmentDate = model.Day(day)
	return &a, nil
}
