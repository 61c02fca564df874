package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/competency-api/internal/dto"
	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/repository"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
	"github.com/noah-isme/competency-api/pkg/jobs"
)

// RecalculationJobType identifies background recalculation jobs.
const RecalculationJobType = "assessment.recalculate"

type assessmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.EmployeeAssessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.EmployeeAssessment, int, error)
	ListIDsByTemplate(ctx context.Context, templateID string) ([]string, error)
	Create(ctx context.Context, assessment *models.EmployeeAssessment) error
	Write(ctx context.Context, w models.AssessmentWrite) error
	Delete(ctx context.Context, id string) error
}

type templateReader interface {
	FindByID(ctx context.Context, id string) (*models.RequirementTemplate, error)
}

// snapshotHierarchyLoader resolves the hierarchy for the items an assessment froze,
// even after some of them were retired.
type snapshotHierarchyLoader interface {
	HierarchyFor(ctx context.Context, flavor models.AssessmentFlavor, itemIDs []string) (*scoring.Hierarchy, error)
}

type gradeTableProvider interface {
	Table(ctx context.Context) (*scoring.GradeBandTable, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AssessmentService owns the DRAFT/COMPLETED lifecycle and decides when scores become authoritative.
type AssessmentService struct {
	repo        assessmentRepository
	templates   templateReader
	hierarchies snapshotHierarchyLoader
	bands       gradeTableProvider
	scale       scoring.RatingScale
	metrics     *MetricsService
	queue       jobEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentRepository, templates templateReader, hierarchies snapshotHierarchyLoader, bands gradeTableProvider,
	scale scoring.RatingScale, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		repo:        repo,
		templates:   templates,
		hierarchies: hierarchies,
		bands:       bands,
		scale:       scale,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetRecalculationQueue enables bulk recalculation through a background queue.
func (s *AssessmentService) SetRecalculationQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Get returns an assessment with ratings and stored scores.
func (s *AssessmentService) Get(ctx context.Context, id string) (*models.EmployeeAssessment, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

// List returns assessment headers matching filter.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) ([]models.EmployeeAssessment, *models.Pagination, error) {
	if filter.Status != "" && filter.Status != models.AssessmentDraft && filter.Status != models.AssessmentCompleted {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create opens a DRAFT assessment, snapshotting the template's required levels.
// With action submit the assessment is scored and stored COMPLETED in the same write.
func (s *AssessmentService) Create(ctx context.Context, req dto.CreateAssessmentRequest) (*models.EmployeeAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	date, err := time.Parse(dto.AssessmentDateLayout, req.AssessmentDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "assessment_date must be YYYY-MM-DD")
	}
	template, err := s.templates.FindByID(ctx, req.TemplateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	if !template.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template is inactive")
	}
	requirements := snapshotRequirements(template)
	if len(requirements) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template has no requirements")
	}
	ratings, err := s.buildRatings(requirements, req.Ratings)
	if err != nil {
		return nil, err
	}

	assessment := &models.EmployeeAssessment{
		EmployeeID:     strings.TrimSpace(req.EmployeeID),
		TemplateID:     template.ID,
		Flavor:         template.Flavor,
		AssessmentDate: date,
		Status:         models.AssessmentDraft,
		Requirements:   requirements,
		Ratings:        ratings,
	}
	transition := "create"
	if req.Action == dto.ActionSubmit {
		if err := s.requireRatings(assessment); err != nil {
			return nil, err
		}
		if err := s.score(ctx, assessment); err != nil {
			return nil, err
		}
		assessment.Status = models.AssessmentCompleted
		transition = "create_submit"
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an assessment already exists for this employee, template and date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	s.metrics.RecordTransition(transition)
	s.logger.Info("assessment created",
		zap.String("assessment_id", assessment.ID),
		zap.String("employee_id", assessment.EmployeeID),
		zap.String("template_id", assessment.TemplateID),
		zap.String("status", string(assessment.Status)))
	return assessment, nil
}

// UpdateRatings routes a ratings write to save_draft (default) or submit.
func (s *AssessmentService) UpdateRatings(ctx context.Context, id string, req dto.UpdateRatingsRequest) (*models.EmployeeAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ratings payload")
	}
	if req.Action == dto.ActionSubmit {
		ratings := req.Ratings
		if ratings == nil {
			ratings = []dto.RatingInput{}
		}
		return s.Submit(ctx, id, dto.SubmitAssessmentRequest{Ratings: ratings, Version: req.Version})
	}
	return s.SaveDraft(ctx, id, req.Ratings, req.Version)
}

// SaveDraft replaces the rating collection of a DRAFT assessment without scoring.
func (s *AssessmentService) SaveDraft(ctx context.Context, id string, inputs []dto.RatingInput, version *int) (*models.EmployeeAssessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(assessment, version); err != nil {
		return nil, err
	}
	if assessment.Status != models.AssessmentDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "assessment is COMPLETED; reopen it before editing ratings")
	}
	ratings, err := s.buildRatings(assessment.Requirements, inputs)
	if err != nil {
		return nil, err
	}
	assessment.Ratings = ratings
	if err := s.write(ctx, assessment, true, false); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("save_draft")
	s.logger.Debug("assessment draft saved", zap.String("assessment_id", id), zap.Int("ratings", len(ratings)))
	return assessment, nil
}

// Submit scores a DRAFT assessment and marks it COMPLETED.
func (s *AssessmentService) Submit(ctx context.Context, id string, req dto.SubmitAssessmentRequest) (*models.EmployeeAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit payload")
	}
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(assessment, req.Version); err != nil {
		return nil, err
	}
	if assessment.Status != models.AssessmentDraft {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only DRAFT assessments can be submitted")
	}
	replace := req.Ratings != nil
	if replace {
		ratings, err := s.buildRatings(assessment.Requirements, req.Ratings)
		if err != nil {
			return nil, err
		}
		assessment.Ratings = ratings
	}
	if err := s.requireRatings(assessment); err != nil {
		return nil, err
	}
	if err := s.score(ctx, assessment); err != nil {
		return nil, err
	}
	assessment.Status = models.AssessmentCompleted
	if err := s.write(ctx, assessment, replace, true); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("submit")
	s.logger.Info("assessment submitted",
		zap.String("assessment_id", id),
		zap.Float64("overall_percentage", *assessment.OverallPercentage),
		zap.String("overall_letter_grade", *assessment.OverallLetterGrade))
	return assessment, nil
}

// Reopen returns a COMPLETED assessment to DRAFT. Stored scores stay in place but are no longer authoritative.
func (s *AssessmentService) Reopen(ctx context.Context, id string, version *int) (*models.EmployeeAssessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(assessment, version); err != nil {
		return nil, err
	}
	if assessment.Status != models.AssessmentCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only COMPLETED assessments can be reopened")
	}
	assessment.Status = models.AssessmentDraft
	if err := s.write(ctx, assessment, false, false); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("reopen")
	s.logger.Info("assessment reopened", zap.String("assessment_id", id))
	return assessment, nil
}

// Recalculate rescores an assessment in any state and overwrites the stored scores.
func (s *AssessmentService) Recalculate(ctx context.Context, id string) (*models.EmployeeAssessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.score(ctx, assessment); err != nil {
		return nil, err
	}
	if err := s.write(ctx, assessment, false, true); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition("recalculate")
	s.logger.Info("assessment recalculated",
		zap.String("assessment_id", id),
		zap.String("status", string(assessment.Status)),
		zap.Float64("overall_percentage", *assessment.OverallPercentage))
	return assessment, nil
}

// Delete removes an assessment together with its ratings and scores.
func (s *AssessmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assessment")
	}
	s.metrics.RecordTransition("delete")
	return nil
}

// RecalculateTemplate queues a recalculation for every assessment on a template.
func (s *AssessmentService) RecalculateTemplate(ctx context.Context, templateID string) (int, error) {
	if s.queue == nil {
		return 0, appErrors.Clone(appErrors.ErrFeatureDisabled, "bulk recalculation is disabled")
	}
	if _, err := s.templates.FindByID(ctx, templateID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	ids, err := s.repo.ListIDsByTemplate(ctx, templateID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list template assessments")
	}
	for i, id := range ids {
		if err := s.queue.Enqueue(jobs.Job{ID: id, Type: RecalculationJobType, Payload: id}); err != nil {
			return i, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue recalculation")
		}
	}
	s.logger.Info("template recalculation queued", zap.String("template_id", templateID), zap.Int("assessments", len(ids)))
	return len(ids), nil
}

// HandleRecalculationJob is the queue handler for RecalculationJobType.
func (s *AssessmentService) HandleRecalculationJob(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		return jobs.Permanent(fmt.Errorf("recalculation job %s: unexpected payload %T", job.ID, job.Payload))
	}
	_, err := s.Recalculate(ctx, id)
	if err != nil && errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Info("assessment removed before recalculation", zap.String("assessment_id", id))
		err = nil
	}
	s.metrics.RecordRecalculationJob(err)
	if err != nil && !errors.Is(err, appErrors.ErrConcurrentModified) && appErrors.FromError(err).Status < http.StatusInternalServerError {
		// only server-side faults and lost version races are worth retrying
		return jobs.Permanent(err)
	}
	return err
}

func (s *AssessmentService) score(ctx context.Context, assessment *models.EmployeeAssessment) error {
	h, err := s.hierarchies.HierarchyFor(ctx, assessment.Flavor, snapshotItemIDs(assessment))
	if err != nil {
		return err
	}
	table, err := s.bands.Table(ctx)
	if err != nil {
		return err
	}
	ratings := make([]scoring.Rating, len(assessment.Ratings))
	for i, r := range assessment.Ratings {
		ratings[i] = scoring.Rating{ItemID: r.ItemID, Required: r.RequiredLevel, Actual: r.ActualLevel}
	}
	start := time.Now()
	result, err := scoring.Compute(ratings, h, table)
	s.metrics.ObserveScoring(assessment.Flavor, err, time.Since(start))
	if err != nil {
		if errors.Is(err, scoring.ErrConfiguration) {
			s.logger.Error("grade band configuration rejected scoring",
				zap.String("assessment_id", assessment.ID), zap.Error(err))
		}
		return translateScoringErr(err, "failed to score assessment")
	}
	applyResult(assessment, result, s.now())
	return nil
}

func snapshotItemIDs(assessment *models.EmployeeAssessment) []string {
	ids := make([]string, 0, len(assessment.Requirements)+len(assessment.Ratings))
	for _, req := range assessment.Requirements {
		ids = append(ids, req.ItemID)
	}
	for _, r := range assessment.Ratings {
		ids = append(ids, r.ItemID)
	}
	return ids
}

func (s *AssessmentService) write(ctx context.Context, assessment *models.EmployeeAssessment, replaceRatings, writeScores bool) error {
	err := s.repo.Write(ctx, models.AssessmentWrite{
		Assessment:      assessment,
		ExpectedVersion: assessment.Version,
		ReplaceRatings:  replaceRatings,
		WriteScores:     writeScores,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleVersion) {
		return appErrors.Clone(appErrors.ErrConcurrentModified, "assessment was modified by another request; reload and retry")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save assessment")
}

// buildRatings copies required levels from the assessment's own snapshot, never from the live template.
func (s *AssessmentService) buildRatings(requirements []models.AssessmentRequirement, inputs []dto.RatingInput) ([]models.AssessmentRating, error) {
	required := make(map[string]int, len(requirements))
	for _, r := range requirements {
		required[r.ItemID] = r.RequiredLevel
	}
	seen := make(map[string]struct{}, len(inputs))
	ratings := make([]models.AssessmentRating, 0, len(inputs))
	for _, in := range inputs {
		level, ok := required[in.ItemID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %s is not part of this assessment's template", in.ItemID))
		}
		if _, dup := seen[in.ItemID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %s rated more than once", in.ItemID))
		}
		seen[in.ItemID] = struct{}{}
		if err := s.scale.CheckActual(in.ActualLevel); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("item %s: %v", in.ItemID, err))
		}
		ratings = append(ratings, models.AssessmentRating{
			ItemID:        in.ItemID,
			RequiredLevel: level,
			ActualLevel:   in.ActualLevel,
			Notes:         strings.TrimSpace(in.Notes),
		})
	}
	return ratings, nil
}

func (s *AssessmentService) requireRatings(assessment *models.EmployeeAssessment) error {
	if len(assessment.Ratings) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one rating is required to submit")
	}
	return nil
}

func checkVersion(assessment *models.EmployeeAssessment, version *int) error {
	if version != nil && *version != assessment.Version {
		return appErrors.Clone(appErrors.ErrConcurrentModified,
			fmt.Sprintf("assessment is at version %d, request was based on version %d", assessment.Version, *version))
	}
	return nil
}

func snapshotRequirements(template *models.RequirementTemplate) []models.AssessmentRequirement {
	requirements := make([]models.AssessmentRequirement, 0, len(template.Ratings))
	for _, r := range template.Ratings {
		requirements = append(requirements, models.AssessmentRequirement{ItemID: r.ItemID, RequiredLevel: r.RequiredLevel})
	}
	return requirements
}

func applyResult(assessment *models.EmployeeAssessment, result *scoring.Result, scoredAt time.Time) {
	overall := result.OverallPercentage
	letter := result.OverallLetterGrade
	assessment.OverallPercentage = &overall
	assessment.OverallLetterGrade = &letter
	assessment.ScoredAt = &scoredAt
	assessment.GroupScores = make([]models.AssessmentGroupScore, 0, len(result.Groups))
	for _, g := range result.Groups {
		score := models.AssessmentGroupScore{
			AssessmentID:  assessment.ID,
			GroupID:       g.GroupID,
			GroupName:     g.Name,
			Level:         g.Level,
			PositionTotal: g.PositionTotal,
			EmployeeTotal: g.EmployeeTotal,
			Percentage:    g.Percentage,
			LetterGrade:   g.LetterGrade,
		}
		if g.ParentID != "" {
			parent := g.ParentID
			score.ParentID = &parent
		}
		assessment.GroupScores = append(assessment.GroupScores, score)
	}
}
