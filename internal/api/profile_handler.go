package api

import (
	"fmt"
	"net/http"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/interfaces"
	"velym/backend/internal/storage"
)

// UpdateProfileRequest is the DTO for editing the profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"max=100" example:"Alice Smith"`
}

type ProfileHandler struct {
	service interfaces.ProfileService
}

func NewProfileHandler(svc interfaces.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// GetProfile godoc
// @Summary      Get the profile
// @Tags         Profile
// @Produce      json
// @Success      200  {object}  model.Profile
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// UpdateProfile godoc
// @Summary      Update the profile name
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  model.Profile
// @Failure      400      {object}  ErrorResponse
// @Router       /v1/profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	p, err := h.service.UpdateName(r.Context(), id.UserID, req.FullName)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

// UploadAvatar godoc
// @Summary      Upload a profile picture
// @Tags         Profile
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar  formData  file  true  "PNG, JPEG, GIF or WebP image up to 5 MB"
// @Success      200     {object}  model.Profile
// @Failure      400     {object}  ErrorResponse
// @Failure      503     {object}  ErrorResponse
// @Router       /v1/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxAvatarSize+1<<20)
	if err := r.ParseMultipartForm(storage.MaxAvatarSize); err != nil {
		respondWithError(w, fmt.Errorf("%w: could not read upload: %v", app_errors.ErrValidation, err))
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: form field 'avatar' is required", app_errors.ErrValidation))
		return
	}
	defer func() { _ = file.Close() }()

	p, err := h.service.UploadAvatar(r.Context(), id.UserID, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}
