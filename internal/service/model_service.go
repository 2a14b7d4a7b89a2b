package service

import (
	"context"
	"time"

	"velym/backend/internal/llm"
)

// ModelStatus reports which AI model serves completions and whether its
// backend answers.
type ModelStatus struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// ModelService exposes the configured completion model.
type ModelService struct {
	provider llm.Provider
	name     string
	model    string
}

func NewModelService(provider llm.Provider, providerName, model string) *ModelService {
	return &ModelService{provider: provider, name: providerName, model: model}
}

// Status pings the provider when it supports it. Providers without a health
// check are reported as reachable.
func (s *ModelService) Status(ctx context.Context) *ModelStatus {
	status := &ModelStatus{Provider: s.name, Model: s.model, Reachable: true, CheckedAt: time.Now().UTC()}
	pinger, ok := s.provider.(llm.Pinger)
	if !ok {
		return status
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		status.Reachable = false
		status.Error = err.Error()
	}
	return status
}
