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

// AssessmentRepository persists employee assessments with their owned rows.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new repository instance.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `id, employee_id, template_id, flavor, assessment_date, status, overall_percentage,
        overall_letter_grade, scored_at, version, created_at, updated_at`

// FindByID returns an assessment with requirements, ratings and group scores.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*models.EmployeeAssessment, error) {
	const query = `SELECT ` + assessmentColumns + ` FROM employee_assessments WHERE id = $1`
	var assessment models.EmployeeAssessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, &assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List returns assessment headers matching the filter along with the total count.
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.EmployeeAssessment, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", len(args)+1)
		args = append(args, filter.EmployeeID)
	}
	if filter.TemplateID != "" {
		where += fmt.Sprintf(" AND template_id = $%d", len(args)+1)
		args = append(args, filter.TemplateID)
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM employee_assessments"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := `SELECT ` + assessmentColumns + ` FROM employee_assessments` + where +
		fmt.Sprintf(" ORDER BY assessment_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var assessments []models.EmployeeAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, total, nil
}

// ListIDsByTemplate returns the ids of every assessment on a template.
func (r *AssessmentRepository) ListIDsByTemplate(ctx context.Context, templateID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM employee_assessments WHERE template_id = $1 ORDER BY created_at`, templateID); err != nil {
		return nil, fmt.Errorf("list template assessments: %w", err)
	}
	return ids, nil
}

// Create inserts the assessment, its requirement snapshot, any initial ratings and scores.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.EmployeeAssessment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	assessment.Version = 1
	const insertAssessment = `INSERT INTO employee_assessments (id, employee_id, template_id, flavor, assessment_date, status,
        overall_percentage, overall_letter_grade, scored_at, version, created_at, updated_at)
        VALUES (:id, :employee_id, :template_id, :flavor, :assessment_date, :status,
        :overall_percentage, :overall_letter_grade, :scored_at, :version, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertAssessment, assessment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert assessment: %w", translateWriteErr(err))
	}
	const insertRequirement = `INSERT INTO assessment_requirements (assessment_id, item_id, required_level, position)
        VALUES (:assessment_id, :item_id, :required_level, :position)`
	for i := range assessment.Requirements {
		assessment.Requirements[i].AssessmentID = assessment.ID
		assessment.Requirements[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insertRequirement, assessment.Requirements[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert assessment requirement: %w", err)
		}
	}
	if err := r.insertRatingsTx(ctx, tx, assessment.ID, assessment.Ratings); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := r.insertGroupScoresTx(ctx, tx, assessment.ID, assessment.GroupScores); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessment: %w", err)
	}
	return nil
}

// Write applies status, score and optional rating/score replacement atomically.
// The version check doubles as the row lock serialising concurrent writers.
func (r *AssessmentRepository) Write(ctx context.Context, w models.AssessmentWrite) error {
	a := w.Assessment
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const updateQuery = `UPDATE employee_assessments SET status = $1, overall_percentage = $2, overall_letter_grade = $3,
        scored_at = $4, version = version + 1, updated_at = $5 WHERE id = $6 AND version = $7`
	res, err := tx.ExecContext(ctx, updateQuery, a.Status, a.OverallPercentage, a.OverallLetterGrade, a.ScoredAt, now, a.ID, w.ExpectedVersion)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update assessment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update assessment: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrStaleVersion
	}
	if w.ReplaceRatings {
		if _, err := tx.ExecContext(ctx, "DELETE FROM assessment_ratings WHERE assessment_id = $1", a.ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("clear assessment ratings: %w", err)
		}
		if err := r.insertRatingsTx(ctx, tx, a.ID, a.Ratings); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if w.WriteScores {
		if err := r.replaceGroupScoresTx(ctx, tx, a.ID, a.GroupScores); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessment: %w", err)
	}
	a.Version = w.ExpectedVersion + 1
	a.UpdatedAt = now
	return nil
}

// Delete removes an assessment; requirements, ratings and scores cascade.
func (r *AssessmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employee_assessments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assessment: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AssessmentRepository) insertRatingsTx(ctx context.Context, tx *sqlx.Tx, assessmentID string, ratings []models.AssessmentRating) error {
	const insertRating = `INSERT INTO assessment_ratings (id, assessment_id, item_id, required_level, actual_level, notes, position)
        VALUES (:id, :assessment_id, :item_id, :required_level, :actual_level, :notes, :position)`
	for i := range ratings {
		ratings[i].ID = uuid.NewString()
		ratings[i].AssessmentID = assessmentID
		ratings[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insertRating, ratings[i]); err != nil {
			return fmt.Errorf("insert assessment rating: %w", err)
		}
	}
	return nil
}

func (r *AssessmentRepository) replaceGroupScoresTx(ctx context.Context, tx *sqlx.Tx, assessmentID string, scores []models.AssessmentGroupScore) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM assessment_group_scores WHERE assessment_id = $1", assessmentID); err != nil {
		return fmt.Errorf("clear group scores: %w", err)
	}
	return r.insertGroupScoresTx(ctx, tx, assessmentID, scores)
}

func (r *AssessmentRepository) insertGroupScoresTx(ctx context.Context, tx *sqlx.Tx, assessmentID string, scores []models.AssessmentGroupScore) error {
	const insertScore = `INSERT INTO assessment_group_scores (assessment_id, group_id, group_name, level, parent_id,
        position_total, employee_total, percentage, letter_grade, position)
        VALUES (:assessment_id, :group_id, :group_name, :level, :parent_id,
        :position_total, :employee_total, :percentage, :letter_grade, :position)`
	for i := range scores {
		scores[i].AssessmentID = assessmentID
		scores[i].Position = i
		if _, err := tx.NamedExecContext(ctx, insertScore, scores[i]); err != nil {
			return fmt.Errorf("insert group score: %w", err)
		}
	}
	return nil
}

func (r *AssessmentRepository) loadChildren(ctx context.Context, a *models.EmployeeAssessment) error {
	const reqQuery = `SELECT assessment_id, item_id, required_level, position
        FROM assessment_requirements WHERE assessment_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &a.Requirements, reqQuery, a.ID); err != nil {
		return fmt.Errorf("load assessment requirements: %w", err)
	}
	const ratingQuery = `SELECT id, assessment_id, item_id, required_level, actual_level, notes, position
        FROM assessment_ratings WHERE assessment_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &a.Ratings, ratingQuery, a.ID); err != nil {
		return fmt.Errorf("load assessment ratings: %w", err)
	}
	const scoreQuery = `SELECT assessment_id, group_id, group_name, level, parent_id, position_total, employee_total,
        percentage, letter_grade, position
        FROM assessment_group_scores WHERE assessment_id = $1 ORDER BY position`
	if err := r.db.SelectContext(ctx, &a.GroupScores, scoreQuery, a.ID); err != nil {
		return fmt.Errorf("load group scores: %w", err)
	}
	return nil
}
