package repository

import (
	"context"
	"time"

	"velym/backend/internal/model"
)

// Every method that reads or writes user data takes the owner's id and only
// touches that owner's rows.

// UserRepository stores accounts, sessions and password recovery grants.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error

	CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// ProfileRepository stores the per-user profile.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfileName(ctx context.Context, userID, fullName string) (*model.Profile, error)
	UpdateProfileAvatar(ctx context.Context, userID, avatarURL string) (*model.Profile, error)
}

// AssessmentRepository stores one assessment per user per calendar day.
type AssessmentRepository interface {
	// UpsertAssessment writes the assessment for (UserID, AssessmentDate),
	// replacing an existing one. It reports whether a new row was created and
	// fills in the ID and CreatedAt of the stored row.
	UpsertAssessment(ctx context.Context, assessment *model.Assessment) (bool, error)
	GetAssessmentByDate(ctx context.Context, userID string, day model.Day) (*model.Assessment, error)
	ListAssessments(ctx context.Context, userID string) ([]model.Assessment, error)
	DeleteAssessments(ctx context.Context, userID string) (int64, error)
}

// ConversationRepository stores conversations and their messages.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *model.Conversation) error
	GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.ConversationSummary, error)
	UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) error
	DeleteConversation(ctx context.Context, conversationID, userID string) error
	DeleteConversations(ctx context.Context, userID string) (int64, error)

	AddMessage(ctx context.Context, message *model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	CountUserMessages(ctx context.Context, conversationID string) (int, error)
}

// ResourceRepository stores the mental-health resource directory.
type ResourceRepository interface {
	ListResources(ctx context.Context, category string) ([]model.Resource, error)
	SeedResources(ctx context.Context, resources []model.Resource) error
}

// Repository is the full data-store contract implemented by the SQLite store.
type Repository interface {
	UserRepository
	ProfileRepository
	AssessmentRepository
	ConversationRepository
	ResourceRepository
}
