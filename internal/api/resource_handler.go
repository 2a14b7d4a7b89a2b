package api

import (
	"net/http"

	"velym/backend/internal/interfaces"
)

type ResourceHandler struct {
	service interfaces.ResourceService
}

func NewResourceHandler(svc interfaces.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: svc}
}

// ListMentalHealth godoc
// @Summary      List mental-health resources
// @Tags         Resources
// @Produce      json
// @Param        category  query     string  false  "Article, Exercise, Video or All"
// @Param        q         query     string  false  "Search in title, description and content"
// @Success      200       {array}   model.Resource
// @Failure      400       {object}  ErrorResponse
// @Router       /v1/resources/mental-health [get]
func (h *ResourceHandler) ListMentalHealth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.MentalHealth(r.Context(), q.Get("category"), q.Get("q"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}

// ListTools godoc
// @Summary      List external health and lifestyle tools
// @Tags         Resources
// @Produce      json
// @Success      200  {array}  model.ToolGroup
// @Router       /v1/resources/tools [get]
func (h *ResourceHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Tools())
}
