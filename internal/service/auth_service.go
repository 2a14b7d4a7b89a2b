package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"velym/backend/internal/auth"
	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
	"velym/backend/internal/repository"
	"velym/backend/internal/session"
)

// Session change kinds carried by events on realtime.TableAuth.
const (
	AuthSignedIn         = "SIGNED_IN"
	AuthSignedOut        = "SIGNED_OUT"
	AuthPasswordRecovery = "PASSWORD_RECOVERY"
	AuthUserUpdated      = "USER_UPDATED"
)

// AuthChange is the record of an auth change event.
type AuthChange struct {
	Event     string `json:"event"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes reset links to the log instead of sending email.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	slog.Info("Password reset requested", "email", email, "link", link)
	return nil
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by sign-up and sign-in.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// CurrentSession describes the session behind a request.
type CurrentSession struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthService struct {
	repo      repository.UserRepository
	tokens    *auth.TokenIssuer
	limiter   *auth.Limiter
	mailer    Mailer
	events    realtime.Publisher
	resetTTL  time.Duration
	publicURL string
	now       func() time.Time
}

type AuthOptions struct {
	Tokens    *auth.TokenIssuer
	Limiter   *auth.Limiter
	Mailer    Mailer
	Events    realtime.Publisher
	ResetTTL  time.Duration
	PublicURL string
}

func NewAuthService(repo repository.UserRepository, opts AuthOptions) *AuthService {
	if opts.Mailer == nil {
		opts.Mailer = LogMailer{}
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &AuthService{
		repo:      repo,
		tokens:    opts.Tokens,
		limiter:   opts.Limiter,
		mailer:    opts.Mailer,
		events:    opts.Events,
		resetTTL:  opts.ResetTTL,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
		now:       time.Now,
	}
}

func normaliseEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: a valid email address is required", app_errors.ErrValidation)
	}
	return email, nil
}

func checkPasswordLength(password string) error {
	if len([]rune(password)) < auth.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", app_errors.ErrValidation, auth.MinPasswordLength)
	}
	return nil
}

func (s *AuthService) allow(email string) error {
	if s.limiter != nil && !s.limiter.Allow(email) {
		return app_errors.ErrRateLimited
	}
	return nil
}

// SignUp creates an account with its profile and signs it in.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	email, err := normaliseEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPasswordLength(req.Password); err != nil {
		return nil, err
	}
	if err := s.allow(email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &model.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: now}
	profile := &model.Profile{
		ID:        user.ID,
		Email:     email,
		FullName:  strings.TrimSpace(req.FullName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, app_errors.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	slog.Info("User signed up", "user_id", user.ID)

	return s.startSession(ctx, user)
}

// SignIn checks the credentials and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	email, err := normaliseEmail(req.Email)
	if err != nil {
		return nil, app_errors.ErrInvalidCredentials
	}
	if err := s.allow(email); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, app_errors.ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	now := s.now().UTC()
	sess := &model.Session{ID: uuid.NewString(), UserID: user.ID, CreatedAt: now}
	token, expiresAt, err := s.tokens.Issue(user.ID, sess.ID, now)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = expiresAt
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	s.publish(ctx, realtime.Insert, AuthChange{Event: AuthSignedIn, UserID: user.ID, SessionID: sess.ID})
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ResolveSession verifies token and checks that its session is still open.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*session.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrUnauthorized, err)
	}
	sess, err := s.repo.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: session revoked", app_errors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("could not load session: %w", err)
	}
	if sess.UserID != claims.Subject || !s.now().Before(sess.ExpiresAt) {
		return nil, fmt.Errorf("%w: session expired", app_errors.ErrUnauthorized)
	}
	user, err := s.repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", app_errors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return &session.Identity{UserID: user.ID, SessionID: sess.ID, Email: user.Email}, nil
}

// CurrentSession returns the details of the caller's session.
func (s *AuthService) CurrentSession(ctx context.Context, id *session.Identity) (*CurrentSession, error) {
	sess, err := s.repo.GetSession(ctx, id.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrUnauthorized
		}
		return nil, fmt.Errorf("could not load session: %w", err)
	}
	return &CurrentSession{UserID: id.UserID, Email: id.Email, SessionID: sess.ID, ExpiresAt: sess.ExpiresAt}, nil
}

// SignOut closes the caller's session.
func (s *AuthService) SignOut(ctx context.Context, id *session.Identity) error {
	if err := s.repo.DeleteSession(ctx, id.SessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("could not delete session: %w", err)
	}
	s.publish(ctx, realtime.Delete, AuthChange{Event: AuthSignedOut, UserID: id.UserID, SessionID: id.SessionID})
	return nil
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed
// silently so the endpoint does not reveal which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normaliseEmail(email)
	if err != nil {
		return err
	}
	if err := s.allow(email); err != nil {
		return err
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Debug("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("could not look up user: %w", err)
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	reset := &model.PasswordReset{TokenHash: hash, UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(s.resetTTL)}
	if err := s.repo.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("could not store reset token: %w", err)
	}

	link := s.publicURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, email, link); err != nil {
		return fmt.Errorf("could not send reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using an emailed token and signs the
// user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	userID, err := s.repo.ConsumePasswordReset(ctx, auth.HashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: reset link is invalid or has expired", app_errors.ErrValidation)
		}
		return fmt.Errorf("could not verify reset token: %w", err)
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	if err := s.repo.DeleteUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("could not revoke sessions: %w", err)
	}
	s.publish(ctx, realtime.Update, AuthChange{Event: AuthPasswordRecovery, UserID: userID})
	return nil
}

// UpdatePassword changes the signed-in user's password.
func (s *AuthService) UpdatePassword(ctx context.Context, id *session.Identity, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	if err := s.setPassword(ctx, id.UserID, newPassword); err != nil {
		return err
	}
	s.publish(ctx, realtime.Update, AuthChange{Event: AuthUserUpdated, UserID: id.UserID, SessionID: id.SessionID})
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return app_errors.ErrNotFound
		}
		return fmt.Errorf("could not update password: %w", err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, typ realtime.EventType, change AuthChange) {
	publishChange(ctx, s.events, realtime.TableAuth, typ, change.UserID, nil, change)
}
