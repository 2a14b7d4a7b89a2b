package interfaces

import (
	"context"
	"io"

	"velym/backend/internal/model"
	"velym/backend/internal/service"
	"velym/backend/internal/session"
)

// This file defines the interfaces for our core services.
// The API layer depends on these rather than on the concrete services so that
// handlers can be tested against generated mocks.

// AuthService defines the contract for account and session logic.
type AuthService interface {
	session.Resolver
	SignUp(ctx context.Context, req service.SignUpRequest) (*service.AuthResult, error)
	SignIn(ctx context.Context, req service.SignInRequest) (*service.AuthResult, error)
	SignOut(ctx context.Context, id *session.Identity) error
	CurrentSession(ctx context.Context, id *session.Identity) (*service.CurrentSession, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	UpdatePassword(ctx context.Context, id *session.Identity, newPassword string) error
}

// AssessmentService defines the contract for daily assessments and the
// dashboard.
type AssessmentService interface {
	Submit(ctx context.Context, userID string, req service.SubmitRequest) (*service.SubmitResult, error)
	Today(ctx context.Context, userID, timezone string) (*model.Assessment, error)
	History(ctx context.Context, userID string) ([]model.Assessment, error)
	ClearAll(ctx context.Context, userID string) (int64, error)
	Dashboard(ctx context.Context, userID string) (*service.DashboardView, error)
	Insights(ctx context.Context, userID string) (*service.Insights, error)
}

// ChatService defines the contract for chat-related business logic.
type ChatService interface {
	CreateConversation(ctx context.Context, userID string) (*model.FullConversation, error)
	GetFullConversation(ctx context.Context, userID, conversationID string) (*model.FullConversation, error)
	ListMessages(ctx context.Context, userID, conversationID string) ([]model.Message, error)
	ListConversations(ctx context.Context, userID string) ([]model.ConversationSummary, error)
	SendMessage(ctx context.Context, userID, conversationID string, req model.SendMessageRequest) (*model.SendResult, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ClearConversations(ctx context.Context, userID string) (int64, error)
}

// ProfileService defines the contract for the user profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	UpdateName(ctx context.Context, userID, fullName string) (*model.Profile, error)
	UploadAvatar(ctx context.Context, userID, contentType string, r io.Reader, size int64) (*model.Profile, error)
}

// ResourceService defines the contract for the resource directories.
type ResourceService interface {
	MentalHealth(ctx context.Context, category, query string) ([]model.Resource, error)
	Tools() []model.ToolGroup
}

// ModelService reports on the configured AI model.
type ModelService interface {
	Status(ctx context.Context) *service.ModelStatus
}
