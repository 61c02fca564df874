package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/pkg/response"
)

type competencyService interface {
	Tree(ctx context.Context, flavor models.AssessmentFlavor) (*models.CompetencyTree, error)
}

// CompetencyHandler serves competency reference data.
type CompetencyHandler struct {
	service competencyService
}

// NewCompetencyHandler builds a new handler.
func NewCompetencyHandler(service competencyService) *CompetencyHandler {
	return &CompetencyHandler{service: service}
}

// Tree godoc
// @Summary Active competency hierarchy
// @Tags Competencies
// @Produce json
// @Param flavor path string true "CORE, BEHAVIORAL or LEADERSHIP"
// @Success 200 {object} response.Envelope
// @Router /competencies/{flavor} [get]
func (h *CompetencyHandler) Tree(c *gin.Context) {
	flavor := models.AssessmentFlavor(strings.ToUpper(c.Param("flavor")))
	tree, err := h.service.Tree(c.Request.Context(), flavor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tree, nil)
}
