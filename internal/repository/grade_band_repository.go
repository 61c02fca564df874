package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/competency-api/internal/models"
)

// GradeBandRepository manages grade band persistence.
type GradeBandRepository struct {
	db *sqlx.DB
}

// NewGradeBandRepository creates a new repository instance.
func NewGradeBandRepository(db *sqlx.DB) *GradeBandRepository {
	return &GradeBandRepository{db: db}
}

const gradeBandColumns = `id, letter, min_percentage, max_percentage, description, is_active, created_at, updated_at`

// List returns every band, optionally only active ones.
func (r *GradeBandRepository) List(ctx context.Context, activeOnly bool) ([]models.GradeBand, error) {
	query := `SELECT ` + gradeBandColumns + ` FROM grade_bands`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY min_percentage`
	var bands []models.GradeBand
	if err := r.db.SelectContext(ctx, &bands, query); err != nil {
		return nil, fmt.Errorf("list grade bands: %w", err)
	}
	return bands, nil
}

// FindByID returns a band by ID.
func (r *GradeBandRepository) FindByID(ctx context.Context, id string) (*models.GradeBand, error) {
	const query = `SELECT ` + gradeBandColumns + ` FROM grade_bands WHERE id = $1`
	var band models.GradeBand
	if err := r.db.GetContext(ctx, &band, query, id); err != nil {
		return nil, err
	}
	return &band, nil
}

// Create inserts a band.
func (r *GradeBandRepository) Create(ctx context.Context, band *models.GradeBand) error {
	if band.ID == "" {
		band.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	band.CreatedAt = now
	band.UpdatedAt = now
	const query = `INSERT INTO grade_bands (id, letter, min_percentage, max_percentage, description, is_active, created_at, updated_at)
        VALUES (:id, :letter, :min_percentage, :max_percentage, :description, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, band); err != nil {
		return fmt.Errorf("insert grade band: %w", err)
	}
	return nil
}

// Update rewrites a band.
func (r *GradeBandRepository) Update(ctx context.Context, band *models.GradeBand) error {
	band.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_bands SET letter = :letter, min_percentage = :min_percentage, max_percentage = :max_percentage,
        description = :description, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, band); err != nil {
		return fmt.Errorf("update grade band: %w", err)
	}
	return nil
}

// Delete removes a band.
func (r *GradeBandRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM grade_bands WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete grade band: %w", err)
	}
	return nil
}
