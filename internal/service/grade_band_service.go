package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

const activeGradeBandsCacheKey = "grade_bands:active"

type gradeBandRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.GradeBand, error)
	FindByID(ctx context.Context, id string) (*models.GradeBand, error)
	Create(ctx context.Context, band *models.GradeBand) error
	Update(ctx context.Context, band *models.GradeBand) error
	Delete(ctx context.Context, id string) error
}

// GradeBandRequest is the create/update payload for a grade band.
type GradeBandRequest struct {
	Letter        string   `json:"letter" validate:"required,max=8"`
	MinPercentage *float64 `json:"min_percentage" validate:"required"`
	MaxPercentage *float64 `json:"max_percentage" validate:"required"`
	Description   string   `json:"description" validate:"max=255"`
	IsActive      *bool    `json:"is_active"`
}

// GradeBandService administers the percentage to letter grade table.
type GradeBandService struct {
	repo      gradeBandRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeBandService constructs the service. cache may be nil.
func NewGradeBandService(repo gradeBandRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *GradeBandService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeBandService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns grade bands ordered by lower bound.
func (s *GradeBandService) List(ctx context.Context, activeOnly bool) ([]models.GradeBand, error) {
	bands, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade bands")
	}
	return bands, nil
}

// Get returns a grade band by id.
func (s *GradeBandService) Get(ctx context.Context, id string) (*models.GradeBand, error) {
	band, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade band not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade band")
	}
	return band, nil
}

// Create validates a band against every active band and stores it.
func (s *GradeBandService) Create(ctx context.Context, req GradeBandRequest) (*models.GradeBand, error) {
	band, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.checkAgainstActive(ctx, band); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, band); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade band")
	}
	s.invalidate(ctx, band.ID)
	return band, nil
}

// Update replaces a band, re-validating it against the other active bands.
func (s *GradeBandService) Update(ctx context.Context, id string, req GradeBandRequest) (*models.GradeBand, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	band, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	band.ID = existing.ID
	band.CreatedAt = existing.CreatedAt
	if err := s.checkAgainstActive(ctx, band); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, band); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade band")
	}
	s.invalidate(ctx, band.ID)
	return band, nil
}

// Delete removes a band.
func (s *GradeBandService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade band")
	}
	s.invalidate(ctx, id)
	return nil
}

// Table returns the active grade band table, served from cache when enabled.
func (s *GradeBandService) Table(ctx context.Context) (*scoring.GradeBandTable, error) {
	var bands []models.GradeBand
	hit, err := s.cache.Get(ctx, activeGradeBandsCacheKey, &bands)
	if err != nil {
		s.logger.Warn("grade band cache unavailable", zap.Error(err))
	}
	if !hit {
		bands, err = s.repo.List(ctx, true)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade bands")
		}
		if err := s.cache.Set(ctx, activeGradeBandsCacheKey, bands, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache grade bands", zap.String("key", activeGradeBandsCacheKey), zap.Int("bands", len(bands)), zap.Error(err))
		}
	}
	return scoring.NewGradeBandTable(bands), nil
}

// Coverage reports whether the active table tiles [0,100] exactly.
func (s *GradeBandService) Coverage(ctx context.Context) (scoring.Coverage, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return scoring.Coverage{}, err
	}
	report := table.Coverage()
	if !report.Complete {
		s.logger.Warn("grade band table incomplete",
			zap.Int("gaps", len(report.Gaps)),
			zap.Int("overlaps", len(report.Overlaps)),
			zap.Strings("letters", report.Letters))
	}
	return report, nil
}

// Lookup resolves the band for a percentage.
func (s *GradeBandService) Lookup(ctx context.Context, percentage float64) (*models.GradeBand, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	band, err := table.GradeFor(percentage)
	if err != nil {
		if errors.Is(err, scoring.ErrConfiguration) {
			s.logger.Error("grade band lookup failed", zap.Float64("percentage", percentage), zap.Error(err))
		}
		return nil, translateScoringErr(err, "failed to resolve grade")
	}
	return &band, nil
}

func (s *GradeBandService) fromRequest(req GradeBandRequest) (*models.GradeBand, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade band payload")
	}
	band := &models.GradeBand{
		Letter:        strings.TrimSpace(req.Letter),
		MinPercentage: *req.MinPercentage,
		MaxPercentage: *req.MaxPercentage,
		Description:   strings.TrimSpace(req.Description),
		IsActive:      true,
	}
	if req.IsActive != nil {
		band.IsActive = *req.IsActive
	}
	if band.Letter == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "letter is required")
	}
	if err := scoring.CheckBand(*band); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "grade band bounds must satisfy 0 <= min < max <= 100")
	}
	return band, nil
}

func (s *GradeBandService) checkAgainstActive(ctx context.Context, band *models.GradeBand) error {
	if !band.IsActive {
		return nil
	}
	active, err := s.repo.List(ctx, true)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade bands")
	}
	for _, other := range active {
		if other.ID == band.ID {
			continue
		}
		if scoring.Overlaps(*band, other) {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("band %s [%g,%g) overlaps band %s [%g,%g)", band.Letter, band.MinPercentage, band.MaxPercentage,
					other.Letter, other.MinPercentage, other.MaxPercentage))
		}
	}
	return nil
}

// invalidate drops the cached table after a write; a failure leaves it stale until the TTL expires.
func (s *GradeBandService) invalidate(ctx context.Context, bandID string) {
	if err := s.cache.Invalidate(ctx, activeGradeBandsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate grade band cache", zap.String("band_id", bandID), zap.Error(err))
	}
}
