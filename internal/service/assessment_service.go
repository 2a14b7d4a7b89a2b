package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"velym/backend/internal/dashboard"
	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/llm"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
	"velym/backend/internal/repository"
	"velym/backend/internal/scoring"
)

// Outcomes of an assessment submission.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// SubmitRequest is a day's assessment. Date is optional and defaults to the
// current day in Timezone (or the server default zone).
type SubmitRequest struct {
	Date     string `json:"assessment_date,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	scoring.Input
}

type SubmitResult struct {
	Assessment *model.Assessment `json:"assessment"`
	Outcome    string            `json:"outcome"`
}

// DashboardView is the dashboard payload: the greeting name plus the summary.
type DashboardView struct {
	FullName string `json:"full_name"`
	dashboard.Summary
}

// Insights is the AI analysis of the dashboard data.
type Insights struct {
	Markdown    string    `json:"markdown"`
	GeneratedAt time.Time `json:"generated_at"`
}

type AssessmentService struct {
	repo        repository.Repository
	llm         llm.Provider
	events      realtime.Publisher
	defaultZone *time.Location
	now         func() time.Time
}

func NewAssessmentService(repo repository.Repository, provider llm.Provider, events realtime.Publisher, defaultZone *time.Location) *AssessmentService {
	if defaultZone == nil {
		defaultZone = time.UTC
	}
	return &AssessmentService{repo: repo, llm: provider, events: events, defaultZone: defaultZone, now: time.Now}
}

// resolveDay turns the request into the user's calendar day. The same wall
// clock day always produces the same key.
func (s *AssessmentService) resolveDay(req SubmitRequest) (model.Day, error) {
	if req.Date != "" {
		day, err := model.ParseDay(req.Date)
		if err != nil {
			return "", fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
		}
		return day, nil
	}
	loc := s.defaultZone
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return "", fmt.Errorf("%w: unknown timezone %q", app_errors.ErrValidation, tz)
		}
		loc = l
	}
	return model.DayOf(s.now().In(loc)), nil
}

// Submit scores the answers and writes the user's assessment for the day,
// creating it or replacing the existing one.
func (s *AssessmentService) Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	answers, score, err := scoring.Compute(req.Input)
	if err != nil {
		return nil, err
	}
	day, err := s.resolveDay(req)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &model.Assessment{
		ID:             uuid.NewString(),
		UserID:         userID,
		AssessmentDate: day,
		Answers:        answers,
		HealthScore:    score,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.repo.UpsertAssessment(ctx, a)
	if err != nil {
		slog.Error("Failed to save assessment", "user_id", userID, "date", day, "error", err)
		return nil, fmt.Errorf("%w: %v", app_errors.ErrSaveFailed, err)
	}

	outcome, typ := OutcomeUpdated, realtime.Update
	if created {
		outcome, typ = OutcomeCreated, realtime.Insert
	}
	slog.Info("Assessment saved", "user_id", userID, "date", day, "outcome", outcome, "score", score)
	publishChange(ctx, s.events, realtime.TableAssessments, typ, userID, map[string]string{"user_id": userID}, a)

	return &SubmitResult{Assessment: a, Outcome: outcome}, nil
}

// Today returns the assessment for the user's current day, if any.
func (s *AssessmentService) Today(ctx context.Context, userID, timezone string) (*model.Assessment, error) {
	day, err := s.resolveDay(SubmitRequest{Timezone: timezone})
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetAssessmentByDate(ctx, userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// History lists the user's assessments in ascending date order.
func (s *AssessmentService) History(ctx context.Context, userID string) ([]model.Assessment, error) {
	return s.repo.ListAssessments(ctx, userID)
}

// ClearAll deletes every assessment of the user and no one else's.
func (s *AssessmentService) ClearAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.DeleteAssessments(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("could not delete assessments: %w", err)
	}
	slog.Info("Cleared assessments", "user_id", userID, "deleted", n)
	publishChange(ctx, s.events, realtime.TableAssessments, realtime.Delete, userID, map[string]string{"user_id": userID}, map[string]any{"deleted": n})
	return n, nil
}

// Dashboard loads the profile and history concurrently and summarises them.
func (s *AssessmentService) Dashboard(ctx context.Context, userID string) (*DashboardView, error) {
	var (
		profile *model.Profile
		history []model.Assessment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("could not load profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		h, err := s.repo.ListAssessments(gctx, userID)
		if err != nil {
			return fmt.Errorf("could not load assessments: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &DashboardView{Summary: dashboard.Summarize(history)}
	if profile != nil {
		view.FullName = profile.FullName
	}
	return view, nil
}

// Insights asks the AI endpoint to analyse the user's latest data.
func (s *AssessmentService) Insights(ctx context.Context, userID string) (*Insights, error) {
	history, err := s.repo.ListAssessments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not load assessments: %w", err)
	}
	summary := dashboard.Summarize(history)
	prompt := dashboard.BuildAnalysisPrompt(summary.Latest, summary.Avg7, summary.Avg30)

	text, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		slog.Error("Failed to generate insights", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", app_errors.ErrCompletion, err)
	}
	return &Insights{Markdown: strings.TrimSpace(text), GeneratedAt: s.now().UTC()}, nil
}
