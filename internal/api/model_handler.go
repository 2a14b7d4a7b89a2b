package api

import (
	"net/http"

	"velym/backend/internal/interfaces"
)

// ModelHandler reports on the AI model behind chat and insights.
type ModelHandler struct {
	service interfaces.ModelService
}

func NewModelHandler(svc interfaces.ModelService) *ModelHandler {
	return &ModelHandler{service: svc}
}

// HandleModelStatus godoc
// @Summary      AI model status
// @Description  Reports the configured provider and model and whether the backend answers.
// @Tags         Models
// @Produce      json
// @Success      200  {object}  service.ModelStatus
// @Failure      503  {object}  service.ModelStatus
// @Router       /v1/ai/status [get]
func (h *ModelHandler) HandleModelStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	code := http.StatusOK
	if !status.Reachable {
		code = http.StatusServiceUnavailable
	}
	respondWithJSON(w, code, status)
}
