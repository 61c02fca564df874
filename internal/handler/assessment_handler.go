package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/competency-api/internal/dto"
	"github.com/noah-isme/competency-api/internal/models"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
	"github.com/noah-isme/competency-api/pkg/response"
)

type assessmentService interface {
	Get(ctx context.Context, id string) (*models.EmployeeAssessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.EmployeeAssessment, *models.Pagination, error)
	Create(ctx context.Context, req dto.CreateAssessmentRequest) (*models.EmployeeAssessment, error)
	UpdateRatings(ctx context.Context, id string, req dto.UpdateRatingsRequest) (*models.EmployeeAssessment, error)
	Submit(ctx context.Context, id string, req dto.SubmitAssessmentRequest) (*models.EmployeeAssessment, error)
	Reopen(ctx context.Context, id string, version *int) (*models.EmployeeAssessment, error)
	Recalculate(ctx context.Context, id string) (*models.EmployeeAssessment, error)
	Delete(ctx context.Context, id string) error
	RecalculateTemplate(ctx context.Context, templateID string) (int, error)
}

// AssessmentHandler exposes the assessment lifecycle.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler builds a new handler.
func NewAssessmentHandler(service assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param employeeId query string false "Employee ID"
// @Param templateId query string false "Template ID"
// @Param status query string false "DRAFT or COMPLETED"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	filter := models.AssessmentFilter{
		EmployeeID: c.Query("employeeId"),
		TemplateID: c.Query("templateId"),
		Status:     models.AssessmentStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentViews(items), pagination)
}

// Get godoc
// @Summary Get assessment
// @Description Scores are only included once the assessment is COMPLETED.
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentView(assessment, false), nil)
}

// Create godoc
// @Summary Create assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}
	assessment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewAssessmentView(assessment, false))
}

// UpdateRatings godoc
// @Summary Replace ratings
// @Description Replaces the rating collection. action=submit also scores and completes the assessment.
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body dto.UpdateRatingsRequest true "Ratings payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessments/{id}/ratings [put]
func (h *AssessmentHandler) UpdateRatings(c *gin.Context) {
	var req dto.UpdateRatingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ratings payload"))
		return
	}
	assessment, err := h.service.UpdateRatings(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentView(assessment, false), nil)
}

// Submit godoc
// @Summary Submit assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body dto.SubmitAssessmentRequest false "Optional final ratings"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /assessments/{id}/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req dto.SubmitAssessmentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}
	assessment, err := h.service.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentView(assessment, false), nil)
}

// Reopen godoc
// @Summary Reopen assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body dto.VersionRequest false "Optional expected version"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessments/{id}/reopen [post]
func (h *AssessmentHandler) Reopen(c *gin.Context) {
	var req dto.VersionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reopen payload"))
		return
	}
	assessment, err := h.service.Reopen(c.Request.Context(), c.Param("id"), req.Version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentView(assessment, false), nil)
}

// Recalculate godoc
// @Summary Recalculate assessment scores
// @Description Rescores in any state. The response always carries the computed scores.
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/recalculate [post]
func (h *AssessmentHandler) Recalculate(c *gin.Context) {
	assessment, err := h.service.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAssessmentView(assessment, true), nil)
}

// Delete godoc
// @Summary Delete assessment
// @Tags Assessments
// @Param id path string true "Assessment ID"
// @Success 204
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecalculateTemplate godoc
// @Summary Queue recalculation of every assessment on a template
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.RecalculateTemplateRequest true "Template"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assessments/recalculate [post]
func (h *AssessmentHandler) RecalculateTemplate(c *gin.Context) {
	var req dto.RecalculateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recalculation payload"))
		return
	}
	queued, err := h.service.RecalculateTemplate(c.Request.Context(), req.TemplateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.RecalculateTemplateResponse{TemplateID: req.TemplateID, Queued: queued})
}
