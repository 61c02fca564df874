package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/scoring"
	"github.com/noah-isme/competency-api/internal/service"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
	"github.com/noah-isme/competency-api/pkg/response"
)

type gradeBandService interface {
	List(ctx context.Context, activeOnly bool) ([]models.GradeBand, error)
	Get(ctx context.Context, id string) (*models.GradeBand, error)
	Create(ctx context.Context, req service.GradeBandRequest) (*models.GradeBand, error)
	Update(ctx context.Context, id string, req service.GradeBandRequest) (*models.GradeBand, error)
	Delete(ctx context.Context, id string) error
	Coverage(ctx context.Context) (scoring.Coverage, error)
	Lookup(ctx context.Context, percentage float64) (*models.GradeBand, error)
}

// GradeBandHandler exposes grade band administration.
type GradeBandHandler struct {
	service gradeBandService
}

// NewGradeBandHandler builds a new handler.
func NewGradeBandHandler(service gradeBandService) *GradeBandHandler {
	return &GradeBandHandler{service: service}
}

// List godoc
// @Summary List grade bands
// @Tags GradeBands
// @Produce json
// @Param active query bool false "Only active bands"
// @Success 200 {object} response.Envelope
// @Router /grade-bands [get]
func (h *GradeBandHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	bands, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bands, nil)
}

// Get godoc
// @Summary Get grade band
// @Tags GradeBands
// @Produce json
// @Param id path string true "Grade band ID"
// @Success 200 {object} response.Envelope
// @Router /grade-bands/{id} [get]
func (h *GradeBandHandler) Get(c *gin.Context) {
	band, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}

// Create godoc
// @Summary Create grade band
// @Tags GradeBands
// @Accept json
// @Produce json
// @Param payload body service.GradeBandRequest true "Grade band payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-bands [post]
func (h *GradeBandHandler) Create(c *gin.Context) {
	var req service.GradeBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade band payload"))
		return
	}
	band, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, band)
}

// Update godoc
// @Summary Update grade band
// @Tags GradeBands
// @Accept json
// @Produce json
// @Param id path string true "Grade band ID"
// @Param payload body service.GradeBandRequest true "Grade band payload"
// @Success 200 {object} response.Envelope
// @Router /grade-bands/{id} [put]
func (h *GradeBandHandler) Update(c *gin.Context) {
	var req service.GradeBandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade band payload"))
		return
	}
	band, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}

// Delete godoc
// @Summary Delete grade band
// @Tags GradeBands
// @Param id path string true "Grade band ID"
// @Success 204
// @Router /grade-bands/{id} [delete]
func (h *GradeBandHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Coverage godoc
// @Summary Report gaps and overlaps in the active grade band table
// @Tags GradeBands
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-bands/coverage [get]
func (h *GradeBandHandler) Coverage(c *gin.Context) {
	report, err := h.service.Coverage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Lookup godoc
// @Summary Resolve the grade band for a percentage
// @Tags GradeBands
// @Produce json
// @Param percentage query number true "Percentage between 0 and 100"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /grade-bands/lookup [get]
func (h *GradeBandHandler) Lookup(c *gin.Context) {
	percentage, err := strconv.ParseFloat(c.Query("percentage"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "percentage query parameter must be a number"))
		return
	}
	band, err := h.service.Lookup(c.Request.Context(), percentage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, band, nil)
}
