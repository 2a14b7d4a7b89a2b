package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"velym/backend/internal/model"
)

// MockRepository is a testify mock of repository.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository that asserts its expectations
// when the test finishes.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockRepository) CreateUser(ctx context.Context, user *model.User, profile *model.Profile) error {
	return _m.Called(ctx, user, profile).Error(0)
}

func (_m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ret := _m.Called(ctx, email)
	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	ret := _m.Called(ctx, userID)
	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return _m.Called(ctx, userID, hash).Error(0)
}

func (_m *MockRepository) CreateSession(ctx context.Context, session *model.Session) error {
	return _m.Called(ctx, session).Error(0)
}

func (_m *MockRepository) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	ret := _m.Called(ctx, sessionID)
	var r0 *model.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Session)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return _m.Called(ctx, sessionID).Error(0)
}

func (_m *MockRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	return _m.Called(ctx, userID).Error(0)
}

func (_m *MockRepository) CreatePasswordReset(ctx context.Context, reset *model.PasswordReset) error {
	return _m.Called(ctx, reset).Error(0)
}

func (_m *MockRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	ret := _m.Called(ctx, tokenHash, now)
	return ret.String(0), ret.Error(1)
}

func (_m *MockRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	ret := _m.Called(ctx, userID)
	var r0 *model.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateProfileName(ctx context.Context, userID, fullName string) (*model.Profile, error) {
	ret := _m.Called(ctx, userID, fullName)
	var r0 *model.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateProfileAvatar(ctx context.Context, userID, avatarURL string) (*model.Profile, error) {
	ret := _m.Called(ctx, userID, avatarURL)
	var r0 *model.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpsertAssessment(ctx context.Context, assessment *model.Assessment) (bool, error) {
	ret := _m.Called(ctx, assessment)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockRepository) GetAssessmentByDate(ctx context.Context, userID string, day model.Day) (*model.Assessment, error) {
	ret := _m.Called(ctx, userID, day)
	var r0 *model.Assessment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Assessment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListAssessments(ctx context.Context, userID string) ([]model.Assessment, error) {
	ret := _m.Called(ctx, userID)
	var r0 []model.Assessment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Assessment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DeleteAssessments(ctx context.Context, userID string) (int64, error) {
	ret := _m.Called(ctx, userID)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockRepository) CreateConversation(ctx context.Context, conversation *model.Conversation) error {
	return _m.Called(ctx, conversation).Error(0)
}

func (_m *MockRepository) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	ret := _m.Called(ctx, conversationID, userID)
	var r0 *model.Conversation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Conversation)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListConversations(ctx context.Context, userID string) ([]model.ConversationSummary, error) {
	ret := _m.Called(ctx, userID)
	var r0 []model.ConversationSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.ConversationSummary)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) error {
	return _m.Called(ctx, conversationID, userID, title).Error(0)
}

func (_m *MockRepository) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	return _m.Called(ctx, conversationID, userID).Error(0)
}

func (_m *MockRepository) DeleteConversations(ctx context.Context, userID string) (int64, error) {
	ret := _m.Called(ctx, userID)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockRepository) AddMessage(ctx context.Context, message *model.Message) error {
	return _m.Called(ctx, message).Error(0)
}

func (_m *MockRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	ret := _m.Called(ctx, conversationID)
	var r0 []model.Message
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Message)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) CountUserMessages(ctx context.Context, conversationID string) (int, error) {
	ret := _m.Called(ctx, conversationID)
	return ret.Int(0), ret.Error(1)
}

func (_m *MockRepository) ListResources(ctx context.Context, category string) ([]model.Resource, error) {
	ret := _m.Called(ctx, category)
	var r0 []model.Resource
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Resource)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) SeedResources(ctx context.Context, resources []model.Resource) error {
	return _m.Called(ctx, resources).Error(0)
}
