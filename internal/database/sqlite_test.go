package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "velym.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	for _, table := range []string{
		"users", "profiles", "sessions", "password_resets",
		"health_assessments", "conversations", "messages", "mental_health_resources",
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "velym.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestInitDB_EnforcesOneAssessmentPerDay(t *testing.T) {
	db, err := InitDB(filepath.Join(t.TempDir(), "velym.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES ('u1', 'a@b.c', 'x', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	insert := `INSERT INTO health_assessments
		(id, user_id, assessment_date, sleep_hours, stress_level, exercise_frequency, diet_quality, social_connection, health_score, created_at, updated_at)
		VALUES (?, 'u1', '2024-01-01', 8, 2, 3, 3, 3, 70, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err = db.Exec(insert, "a1")
	require.NoError(t, err)
	_, err = db.Exec(insert, "a2")
	assert.Error(t, err)
}
