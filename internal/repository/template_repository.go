package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/competency-api/internal/models"
)

// TemplateRepository manages requirement template persistence.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new repository instance.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, position, grade_levels, flavor, is_active, created_at, updated_at`

// List returns templates matching the provided filters.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.RequirementTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM requirement_templates WHERE 1=1`
	args := []interface{}{}
	if filter.Position != "" {
		query += fmt.Sprintf(" AND position = $%d", len(args)+1)
		args = append(args, filter.Position)
	}
	if filter.Flavor != "" {
		query += fmt.Sprintf(" AND flavor = $%d", len(args)+1)
		args = append(args, filter.Flavor)
	}
	if filter.Active != nil {
		query += fmt.Sprintf(" AND is_active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	query += " ORDER BY position, flavor, created_at DESC"

	var templates []models.RequirementTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for i := range templates {
		ratings, err := r.loadRatings(ctx, templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Ratings = ratings
	}
	return templates, nil
}

// FindByID returns a template with its ratings.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.RequirementTemplate, error) {
	const query = `SELECT ` + templateColumns + ` FROM requirement_templates WHERE id = $1`
	var template models.RequirementTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	ratings, err := r.loadRatings(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Ratings = ratings
	return &template, nil
}

// ExistsActive checks for an active template on position+flavor, excluding an optional ID.
func (r *TemplateRepository) ExistsActive(ctx context.Context, position string, flavor models.AssessmentFlavor, excludeID string) (bool, error) {
	query := "SELECT 1 FROM requirement_templates WHERE position = $1 AND flavor = $2 AND is_active = TRUE"
	args := []interface{}{position, flavor}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active template: %w", err)
	}
	return true, nil
}

// CountAssessments returns how many assessments reference the template.
func (r *TemplateRepository) CountAssessments(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM employee_assessments WHERE template_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count template assessments: %w", err)
	}
	return count, nil
}

// Create inserts a template with its ratings.
func (r *TemplateRepository) Create(ctx context.Context, template *models.RequirementTemplate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	const insertTemplate = `INSERT INTO requirement_templates (id, position, grade_levels, flavor, is_active, created_at, updated_at)
        VALUES (:id, :position, :grade_levels, :flavor, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertTemplate, template); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert template: %w", translateWriteErr(err))
	}
	if err := r.replaceRatingsTx(ctx, tx, template.ID, template.Ratings); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template: %w", err)
	}
	return nil
}

// Update rewrites template metadata and replaces every rating in one transaction.
func (r *TemplateRepository) Update(ctx context.Context, template *models.RequirementTemplate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	template.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE requirement_templates SET grade_levels = :grade_levels, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, template); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update template: %w", translateWriteErr(err))
	}
	if err := r.replaceRatingsTx(ctx, tx, template.ID, template.Ratings); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template: %w", err)
	}
	return nil
}

// Delete removes a template; its ratings cascade.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM requirement_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) replaceRatingsTx(ctx context.Context, tx *sqlx.Tx, templateID string, ratings []models.TemplateRating) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM template_ratings WHERE template_id = $1", templateID); err != nil {
		return fmt.Errorf("clear template ratings: %w", err)
	}
	const insertRating = `INSERT INTO template_ratings (id, template_id, item_id, required_level, position)
        VALUES (:id, :template_id, :item_id, :required_level, :position)`
	for i := range ratings {
		if ratings[i].ID == "" {
			ratings[i].ID = uuid.NewString()
		}
		ratings[i].TemplateID = templateID
		ratings[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insertRating, ratings[i]); err != nil {
			return fmt.Errorf("insert template rating: %w", err)
		}
	}
	return nil
}

func (r *TemplateRepository) loadRatings(ctx context.Context, templateID string) ([]models.TemplateRating, error) {
	const query = `SELECT id, template_id, item_id, required_level, position
        FROM template_ratings WHERE template_id = $1 ORDER BY position`
	var ratings []models.TemplateRating
	if err := r.db.SelectContext(ctx, &ratings, query, templateID); err != nil {
		return nil, fmt.Errorf("load template ratings: %w", err)
	}
	return ratings, nil
}
