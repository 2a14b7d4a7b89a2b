package api

import (
	"net/http"

	"velym/backend/internal/interfaces"
	"velym/backend/internal/scoring"
	"velym/backend/internal/service"
)

// AssessmentRequest is the DTO for a day's health assessment. Every answer is
// required and limited to the options the form offers.
type AssessmentRequest struct {
	AssessmentDate    string `json:"assessment_date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2025-03-14"`
	Timezone          string `json:"timezone,omitempty" validate:"omitempty,timezone" example:"Europe/London"`
	SleepHours        *int   `json:"sleep_hours" validate:"required,oneof=4 5 8 9" example:"8"`
	StressLevel       *int   `json:"stress_level" validate:"required,oneof=1 2 3 4 5" example:"2"`
	ExerciseFrequency *int   `json:"exercise_frequency" validate:"required,oneof=0 1 3 5" example:"3"`
	DietQuality       *int   `json:"diet_quality" validate:"required,oneof=1 2 3 4 5" example:"4"`
	SocialConnection  *int   `json:"social_connection" validate:"required,oneof=1 2 3 4 5" example:"4"`
}

func (req AssessmentRequest) toService() service.SubmitRequest {
	return service.SubmitRequest{
		Date:     req.AssessmentDate,
		Timezone: req.Timezone,
		Input: scoring.Input{
			SleepHours:        req.SleepHours,
			StressLevel:       req.StressLevel,
			ExerciseFrequency: req.ExerciseFrequency,
			DietQuality:       req.DietQuality,
			SocialConnection:  req.SocialConnection,
		},
	}
}

type AssessmentHandler struct {
	service interfaces.AssessmentService
}

func NewAssessmentHandler(svc interfaces.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// SubmitAssessment godoc
// @Summary      Submit today's assessment
// @Description  Creates the assessment for the day or replaces the existing one. The response status tells which.
// @Tags         Assessments
// @Accept       json
// @Produce      json
// @Param        request  body      AssessmentRequest  true  "Answers"
// @Success      201      {object}  service.SubmitResult  "created"
// @Success      200      {object}  service.SubmitResult  "updated"
// @Failure      400      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /v1/assessments [post]
func (h *AssessmentHandler) SubmitAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req AssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	res, err := h.service.Submit(r.Context(), id.UserID, req.toService())
	if err != nil {
		respondWithError(w, err)
		return
	}
	status := http.StatusOK
	if res.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, res)
}

// GetToday godoc
// @Summary      Get today's assessment
// @Tags         Assessments
// @Produce      json
// @Param        timezone  query     string  false  "IANA zone of the user"
// @Success      200       {object}  model.Assessment
// @Failure      404       {object}  ErrorResponse
// @Router       /v1/assessments/today [get]
func (h *AssessmentHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	a, err := h.service.Today(r.Context(), id.UserID, r.URL.Query().Get("timezone"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, a)
}

// ListAssessments godoc
// @Summary      List assessment history
// @Tags         Assessments
// @Produce      json
// @Success      200  {array}   model.Assessment
// @Router       /v1/assessments [get]
func (h *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// ClearAssessments godoc
// @Summary      Delete all of the user's assessments
// @Tags         Assessments
// @Produce      json
// @Success      200  {object}  DeletedResponse
// @Router       /v1/assessments [delete]
func (h *AssessmentHandler) ClearAssessments(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	n, err := h.service.ClearAll(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}

// GetDashboard godoc
// @Summary      Get the dashboard summary
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  service.DashboardView
// @Router       /v1/dashboard [get]
func (h *AssessmentHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	view, err := h.service.Dashboard(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// GenerateInsights godoc
// @Summary      Generate AI insights from the dashboard data
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  service.Insights
// @Failure      502  {object}  ErrorResponse
// @Router       /v1/dashboard/insights [post]
func (h *AssessmentHandler) GenerateInsights(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	insights, err := h.service.Insights(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, insights)
}
