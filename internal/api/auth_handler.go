package api

import (
	"net/http"
	"time"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/interfaces"
	"velym/backend/internal/service"
	"velym/backend/internal/session"
)

// SignUpRequest is the DTO for account creation.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret1"`
	FullName string `json:"full_name" validate:"max=100" example:"Alice Smith"`
}

// SignInRequest is the DTO for email and password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// ResetRequestRequest asks for a password reset email.
type ResetRequestRequest struct {
	Email string `json:"email" validate:"required,email" example:"alice@example.com"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdatePasswordRequest changes the signed-in user's password.
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type AuthHandler struct {
	service      interfaces.AuthService
	secureCookie bool
}

func NewAuthHandler(svc interfaces.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie}
}

// identityFrom returns the identity placed on the request by
// session.RequireSession, writing a 401 when it is missing.
func identityFrom(w http.ResponseWriter, r *http.Request) (*session.Identity, bool) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		respondWithError(w, app_errors.ErrUnauthorized)
		return nil, false
	}
	return id, true
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// SignUp godoc
// @Summary      Create an account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      SignUpRequest  true  "New account"
// @Success      201      {object}  service.AuthResult
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	res, err := h.service.SignUp(r.Context(), service.SignUpRequest{Email: req.Email, Password: req.Password, FullName: req.FullName})
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	respondWithJSON(w, http.StatusCreated, res)
}

// SignIn godoc
// @Summary      Sign in with email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      SignInRequest  true  "Credentials"
// @Success      200      {object}  service.AuthResult
// @Failure      401      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Router       /v1/auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	res, err := h.service.SignIn(r.Context(), service.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		respondWithError(w, err)
		return
	}
	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	respondWithJSON(w, http.StatusOK, res)
}

// SignOut godoc
// @Summary      Sign out the current session
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /v1/auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.SignOut(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	h.clearSessionCookie(w)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "signed_out"})
}

// GetSession godoc
// @Summary      Get the current session
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  service.CurrentSession
// @Failure      401  {object}  ErrorResponse
// @Router       /v1/auth/session [get]
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	current, err := h.service.CurrentSession(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, current)
}

// RequestPasswordReset godoc
// @Summary      Email a password reset link
// @Description  Always succeeds for well-formed addresses so registered emails cannot be discovered.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      ResetRequestRequest  true  "Account email"
// @Success      202      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Router       /v1/auth/password/reset-request [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "reset_email_sent"})
}

// ResetPassword godoc
// @Summary      Set a new password with a reset token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      ResetPasswordRequest  true  "Token and new password"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/auth/password/reset [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondWithError(w, err)
		return
	}
	h.clearSessionCookie(w)
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "password_reset"})
}

// UpdatePassword godoc
// @Summary      Change the password of the signed-in user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdatePasswordRequest  true  "New password"
// @Success      200      {object}  StatusResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Router       /v1/auth/password [put]
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.UpdatePassword(r.Context(), id, req.Password); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "password_updated"})
}
