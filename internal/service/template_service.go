package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/repository"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

type templateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.RequirementTemplate, error)
	FindByID(ctx context.Context, id string) (*models.RequirementTemplate, error)
	ExistsActive(ctx context.Context, position string, flavor models.AssessmentFlavor, excludeID string) (bool, error)
	CountAssessments(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, template *models.RequirementTemplate) error
	Update(ctx context.Context, template *models.RequirementTemplate) error
	Delete(ctx context.Context, id string) error
}

type hierarchyLoader interface {
	Hierarchy(ctx context.Context, flavor models.AssessmentFlavor) (*scoring.Hierarchy, error)
}

// TemplateRatingRequest is one (item, required level) pair.
type TemplateRatingRequest struct {
	ItemID        string `json:"item_id" validate:"required"`
	RequiredLevel int    `json:"required_level"`
}

// CreateTemplateRequest handles template creation.
type CreateTemplateRequest struct {
	Position    string                  `json:"position" validate:"required,max=128"`
	GradeLevels []string                `json:"grade_levels" validate:"required,min=1"`
	Flavor      models.AssessmentFlavor `json:"flavor" validate:"required"`
	Ratings     []TemplateRatingRequest `json:"ratings" validate:"required,min=1,dive"`
	IsActive    *bool                   `json:"is_active"`
}

// UpdateTemplateRequest replaces a template's grade levels and every rating.
type UpdateTemplateRequest struct {
	GradeLevels []string                `json:"grade_levels" validate:"required,min=1"`
	Ratings     []TemplateRatingRequest `json:"ratings" validate:"required,min=1,dive"`
	IsActive    *bool                   `json:"is_active"`
}

// TemplateService manages requirement templates.
type TemplateService struct {
	repo        templateRepository
	hierarchies hierarchyLoader
	scale       scoring.RatingScale
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(repo templateRepository, hierarchies hierarchyLoader, scale scoring.RatingScale, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{repo: repo, hierarchies: hierarchies, scale: scale, validator: validate, logger: logger}
}

// List returns templates for filter.
func (s *TemplateService) List(ctx context.Context, filter models.TemplateFilter) ([]models.RequirementTemplate, error) {
	if filter.Flavor != "" && !filter.Flavor.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment flavor %q", filter.Flavor))
	}
	templates, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Get returns a template by id.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.RequirementTemplate, error) {
	template, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// Create validates and stores a template. A second active template for the same position and flavor is rejected.
func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest) (*models.RequirementTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if !req.Flavor.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment flavor %q", req.Flavor))
	}
	position := strings.TrimSpace(req.Position)
	if position == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "position is required")
	}
	levels, err := normalizeGradeLevels(req.GradeLevels)
	if err != nil {
		return nil, err
	}
	ratings, err := s.buildRatings(ctx, req.Flavor, req.Ratings)
	if err != nil {
		return nil, err
	}
	template := &models.RequirementTemplate{
		Position:    position,
		GradeLevels: levels,
		Flavor:      req.Flavor,
		IsActive:    true,
		Ratings:     ratings,
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if err := s.ensureSingleActive(ctx, template); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, template); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateTemplate, duplicateTemplateMessage(template))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	s.logger.Info("template created", zap.String("template_id", template.ID), zap.String("position", position),
		zap.String("flavor", string(template.Flavor)), zap.Int("ratings", len(ratings)))
	return s.Get(ctx, template.ID)
}

// Update replaces grade levels and the entire rating collection atomically.
// Existing assessments keep their own requirement snapshot.
func (s *TemplateService) Update(ctx context.Context, id string, req UpdateTemplateRequest) (*models.RequirementTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	levels, err := normalizeGradeLevels(req.GradeLevels)
	if err != nil {
		return nil, err
	}
	ratings, err := s.buildRatings(ctx, template.Flavor, req.Ratings)
	if err != nil {
		return nil, err
	}
	template.GradeLevels = levels
	template.Ratings = ratings
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	if err := s.ensureSingleActive(ctx, template); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, template); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateTemplate, duplicateTemplateMessage(template))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	s.logger.Info("template updated", zap.String("template_id", id), zap.Int("ratings", len(ratings)))
	return s.Get(ctx, id)
}

// Delete removes a template that no assessment references.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountAssessments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check template usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("template is referenced by %d assessments; deactivate it instead", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

func (s *TemplateService) ensureSingleActive(ctx context.Context, template *models.RequirementTemplate) error {
	if !template.IsActive {
		return nil
	}
	exists, err := s.repo.ExistsActive(ctx, template.Position, template.Flavor, template.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate template")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicateTemplate, duplicateTemplateMessage(template))
	}
	return nil
}

// buildRatings checks that payload covers every active item of the flavor exactly once
// and orders the ratings by hierarchy position.
func (s *TemplateService) buildRatings(ctx context.Context, flavor models.AssessmentFlavor, payload []TemplateRatingRequest) ([]models.TemplateRating, error) {
	h, err := s.hierarchies.Hierarchy(ctx, flavor)
	if err != nil {
		return nil, err
	}
	levels := make(map[string]int, len(payload))
	for _, p := range payload {
		if !h.HasItem(p.ItemID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %s is not part of the %s hierarchy", p.ItemID, flavor))
		}
		if _, dup := levels[p.ItemID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %s listed more than once", p.ItemID))
		}
		if err := s.scale.CheckRequired(p.RequiredLevel); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("item %s: %v", p.ItemID, err))
		}
		levels[p.ItemID] = p.RequiredLevel
	}
	ids := h.ItemIDs()
	ratings := make([]models.TemplateRating, 0, len(ids))
	for _, id := range ids {
		level, ok := levels[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required level for item %s", id))
		}
		ratings = append(ratings, models.TemplateRating{ItemID: id, RequiredLevel: level})
	}
	return ratings, nil
}

// normalizeGradeLevels trims, de-duplicates (case-sensitive) and sorts grade levels.
func normalizeGradeLevels(levels []string) ([]string, error) {
	seen := make(map[string]struct{}, len(levels))
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade_levels must not be empty")
	}
	sort.Strings(out)
	return out, nil
}

func duplicateTemplateMessage(t *models.RequirementTemplate) string {
	return fmt.Sprintf("an active %s template already exists for position %s", t.Flavor, t.Position)
}
