package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velym/backend/internal/database"
	"velym/backend/internal/model"
	"velym/backend/internal/repository"
)

// newStore opens a migrated SQLite database in a temp dir and seeds two users.
func newStore(t *testing.T) repository.Repository {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "velym.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewSQLiteRepository(db)
	now := time.Now().UTC()
	for _, id := range []string{"alice", "bob"} {
		err := repo.CreateUser(context.Background(),
			&model.User{ID: id, Email: id + "@example.com", PasswordHash: "hash", CreatedAt: now},
			&model.Profile{ID: id, Email: id + "@example.com", FullName: id, CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
	}
	return repo
}

func assessment(id, userID string, day model.Day, score int) *model.Assessment {
	now := time.Now().UTC()
	return &model.Assessment{
		ID:             id,
		UserID:         userID,
		AssessmentDate: day,
		Answers:        model.Answers{SleepHours: 8, StressLevel: 2, ExerciseFrequency: 3, DietQuality: 3, SocialConnection: 3},
		HealthScore:    score,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestSQLiteRepository_Users(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)

	t.Run("Duplicate email", func(t *testing.T) {
		now := time.Now()
		err := repo.CreateUser(ctx,
			&model.User{ID: "alice2", Email: "alice@example.com", PasswordHash: "x", CreatedAt: now},
			&model.Profile{ID: "alice2", Email: "alice@example.com", CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("Lookup by email", func(t *testing.T) {
		u, err := repo.GetUserByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "bob", u.ID)

		_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Password reset is single use and expires", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.CreatePasswordReset(ctx, &model.PasswordReset{
			TokenHash: "h1", UserID: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))

		userID, err := repo.ConsumePasswordReset(ctx, "h1", now)
		require.NoError(t, err)
		assert.Equal(t, "alice", userID)

		_, err = repo.ConsumePasswordReset(ctx, "h1", now)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, repo.CreatePasswordReset(ctx, &model.PasswordReset{
			TokenHash: "h2", UserID: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Minute),
		}))
		_, err = repo.ConsumePasswordReset(ctx, "h2", now.Add(2*time.Minute))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Sessions", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.CreateSession(ctx, &model.Session{ID: "s1", UserID: "bob", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

		s, err := repo.GetSession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "bob", s.UserID)

		require.NoError(t, repo.DeleteUserSessions(ctx, "bob"))
		_, err = repo.GetSession(ctx, "s1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSQLiteRepository_Profile(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)

	before, err := repo.GetProfile(ctx, "alice")
	require.NoError(t, err)

	p, err := repo.UpdateProfileName(ctx, "alice", "Alice Liddell")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", p.FullName)
	assert.False(t, p.UpdatedAt.Before(before.UpdatedAt))

	p, err = repo.UpdateProfileAvatar(ctx, "alice", "https://cdn.example.com/avatars/alice.png")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", p.FullName)
	assert.Equal(t, "https://cdn.example.com/avatars/alice.png", p.AvatarURL)

	_, err = repo.UpdateProfileName(ctx, "nobody", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSQLiteRepository_UpsertAssessment(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)

	created, err := repo.UpsertAssessment(ctx, assessment("a1", "alice", "2024-03-01", 60))
	require.NoError(t, err)
	assert.True(t, created)

	second := assessment("a2", "alice", "2024-03-01", 80)
	second.SleepHours = 9
	created, err = repo.UpsertAssessment(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a1", second.ID, "update keeps the original row id")

	// A different user on the same day gets their own row.
	created, err = repo.UpsertAssessment(ctx, assessment("b1", "bob", "2024-03-01", 40))
	require.NoError(t, err)
	assert.True(t, created)

	list, err := repo.ListAssessments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80, list[0].HealthScore)
	assert.Equal(t, 9, list[0].SleepHours)

	stored, err := repo.GetAssessmentByDate(ctx, "alice", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.ID)
}

func TestSQLiteRepository_ListAndDeleteAssessments(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)

	for i, day := range []model.Day{"2024-03-03", "2024-03-01", "2024-03-02"} {
		_, err := repo.UpsertAssessment(ctx, assessment("a"+string(rune('0'+i)), "alice", day, 50+i))
		require.NoError(t, err)
	}
	_, err := repo.UpsertAssessment(ctx, assessment("b1", "bob", "2024-03-01", 40))
	require.NoError(t, err)

	list, err := repo.ListAssessments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, model.Day("2024-03-01"), list[0].AssessmentDate)
	assert.Equal(t, model.Day("2024-03-03"), list[2].AssessmentDate)

	n, err := repo.DeleteAssessments(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	list, err = repo.ListAssessments(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, list, 1, "clearing one user's history leaves other users untouched")
}

func TestSQLiteRepository_Conversations(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"c1", "c2"} {
		created := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateConversation(ctx, &model.Conversation{
			ID: id, UserID: "alice", Title: model.DefaultConversationTitle, CreatedAt: created, UpdatedAt: created,
		}))
	}

	t.Run("Ownership is enforced", func(t *testing.T) {
		_, err := repo.GetConversation(ctx, "c1", "bob")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteConversation(ctx, "c1", "bob"), repository.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateConversationTitle(ctx, "c1", "bob", "x"), repository.ErrNotFound)
	})

	t.Run("Messages are ordered and touch the conversation", func(t *testing.T) {
		require.NoError(t, repo.AddMessage(ctx, &model.Message{ID: "m2", ConversationID: "c1", Content: "second", IsUser: false, CreatedAt: base.Add(10 * time.Minute)}))
		require.NoError(t, repo.AddMessage(ctx, &model.Message{ID: "m1", ConversationID: "c1", Content: "first", IsUser: true, CreatedAt: base.Add(5 * time.Minute)}))

		err := repo.AddMessage(ctx, &model.Message{ID: "m1", ConversationID: "c1", Content: "again", IsUser: true, CreatedAt: base})
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		messages, err := repo.ListMessages(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "m1", messages[0].ID)
		assert.True(t, messages[0].IsUser)

		count, err := repo.CountUserMessages(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("List carries stats ordered by last activity", func(t *testing.T) {
		list, err := repo.ListConversations(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)

		assert.Equal(t, "c1", list[0].ID)
		assert.Equal(t, 2, list[0].MessageCount)
		assert.True(t, list[0].LastMessageTime.Equal(base.Add(10*time.Minute)))

		assert.Equal(t, "c2", list[1].ID)
		assert.Equal(t, 0, list[1].MessageCount)
		assert.True(t, list[1].LastMessageTime.Equal(list[1].CreatedAt))
	})

	t.Run("Clear removes only the owner's conversations", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.CreateConversation(ctx, &model.Conversation{ID: "b1", UserID: "bob", Title: "t", CreatedAt: now, UpdatedAt: now}))

		n, err := repo.DeleteConversations(ctx, "alice")
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		messages, err := repo.ListMessages(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, messages, "messages cascade with their conversation")

		list, err := repo.ListConversations(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestSQLiteRepository_Resources(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t)

	seed := []model.Resource{
		{ID: "r1", Title: "Box breathing", Description: "d", Category: model.CategoryExercise},
		{ID: "r2", Title: "Understanding anxiety", Description: "d", Category: model.CategoryArticle},
		{ID: "r3", Title: "Body scan", Description: "d", Category: model.CategoryVideo},
	}
	require.NoError(t, repo.SeedResources(ctx, seed))
	require.NoError(t, repo.SeedResources(ctx, seed), "seeding twice is harmless")

	all, err := repo.ListResources(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.CategoryArticle, all[0].Category)
	assert.Equal(t, model.CategoryVideo, all[2].Category)

	exercises, err := repo.ListResources(ctx, model.CategoryExercise)
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "r1", exercises[0].ID)
}

// The remaining tests use sqlmock to drive error paths that a real database
// will not produce on demand.

func TestSQLiteRepository_UpsertAssessment_DatabaseErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert failure rolls back", func(t *testing.T) {
		db, mockDB, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		repo := repository.NewSQLiteRepository(db)

		mockDB.ExpectBegin()
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT id FROM health_assessments WHERE user_id = ? AND assessment_date = ?")).
			WithArgs("alice", "2024-03-01").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO health_assessments")).
			WillReturnError(errors.New("disk I/O error"))
		mockDB.ExpectRollback()

		_, err = repo.UpsertAssessment(ctx, assessment("a1", "alice", "2024-03-01", 60))
		require.Error(t, err)
		assert.ErrorContains(t, err, "could not insert assessment")
		require.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Update of existing row", func(t *testing.T) {
		db, mockDB, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		repo := repository.NewSQLiteRepository(db)

		createdAt := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
		mockDB.ExpectBegin()
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT id FROM health_assessments")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing"))
		mockDB.ExpectExec(regexp.QuoteMeta("UPDATE health_assessments")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM health_assessments WHERE id = ?")).
			WithArgs("existing").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))
		mockDB.ExpectCommit()

		a := assessment("new-id", "alice", "2024-03-01", 70)
		created, err := repo.UpsertAssessment(ctx, a)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "existing", a.ID)
		assert.Equal(t, createdAt, a.CreatedAt)
		require.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSQLiteRepository_AddMessage_TimestampFailureRollsBack(t *testing.T) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	repo := repository.NewSQLiteRepository(db)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectExec(regexp.QuoteMeta("UPDATE conversations SET updated_at = ?")).WillReturnError(errors.New("locked"))
	mockDB.ExpectRollback()

	err = repo.AddMessage(context.Background(), &model.Message{ID: "m1", ConversationID: "c1", Content: "hi", IsUser: true, CreatedAt: time.Now()})
	assert.ErrorContains(t, err, "could not update conversation timestamp")
	require.NoError(t, mockDB.ExpectationsWereMet())
}
