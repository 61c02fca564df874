package dto

import (
	"time"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/scoring"
)

// AssessmentAction selects what a ratings write does to the lifecycle.
type AssessmentAction string

const (
	ActionSaveDraft AssessmentAction = "save_draft"
	ActionSubmit    AssessmentAction = "submit"
)

// AssessmentDateLayout is the wire format for assessment dates.
const AssessmentDateLayout = "2006-01-02"

// RatingInput is one actual level submitted for an item.
type RatingInput struct {
	ItemID      string `json:"item_id" validate:"required"`
	ActualLevel int    `json:"actual_level"`
	Notes       string `json:"notes,omitempty" validate:"max=2000"`
}

// CreateAssessmentRequest opens an assessment for an employee against a template.
type CreateAssessmentRequest struct {
	EmployeeID     string           `json:"employee_id" validate:"required"`
	TemplateID     string           `json:"template_id" validate:"required"`
	AssessmentDate string           `json:"assessment_date" validate:"required,datetime=2006-01-02"`
	Ratings        []RatingInput    `json:"ratings" validate:"omitempty,dive"`
	Action         AssessmentAction `json:"action" validate:"omitempty,oneof=save_draft submit"`
}

// UpdateRatingsRequest replaces the rating collection and optionally submits.
type UpdateRatingsRequest struct {
	Ratings []RatingInput    `json:"ratings" validate:"omitempty,dive"`
	Action  AssessmentAction `json:"action" validate:"omitempty,oneof=save_draft submit"`
	Version *int             `json:"version,omitempty"`
}

// SubmitAssessmentRequest finalizes a draft. Ratings, when present, replace the stored collection first.
type SubmitAssessmentRequest struct {
	Ratings []RatingInput `json:"ratings" validate:"omitempty,dive"`
	Version *int          `json:"version,omitempty"`
}

// VersionRequest carries an optional optimistic version for transitions without a body of their own.
type VersionRequest struct {
	Version *int `json:"version,omitempty"`
}

// RecalculateTemplateRequest asks for every assessment on a template to be rescored.
type RecalculateTemplateRequest struct {
	TemplateID string `json:"template_id" validate:"required"`
}

// RecalculateTemplateResponse reports how many recalculations were queued.
type RecalculateTemplateResponse struct {
	TemplateID string `json:"template_id"`
	Queued     int    `json:"queued"`
}

// AssessmentItemView is the per-item gap.
type AssessmentItemView struct {
	ItemID        string           `json:"item_id"`
	RequiredLevel int              `json:"required_level"`
	ActualLevel   int              `json:"actual_level"`
	Gap           int              `json:"gap"`
	Standing      scoring.Standing `json:"standing"`
	Notes         string           `json:"notes,omitempty"`
}

// GroupScoreView is one group roll-up.
type GroupScoreView struct {
	GroupID       string            `json:"group_id"`
	Level         models.GroupLevel `json:"level"`
	ParentID      *string           `json:"parent_id,omitempty"`
	PositionTotal int               `json:"position_total"`
	EmployeeTotal int               `json:"employee_total"`
	Percentage    float64           `json:"percentage"`
	LetterGrade   string            `json:"letter_grade"`
}

// AssessmentView is the read model of an assessment.
type AssessmentView struct {
	ID                 string                    `json:"id"`
	EmployeeID         string                    `json:"employee_id"`
	TemplateID         string                    `json:"template_id"`
	Flavor             models.AssessmentFlavor   `json:"flavor"`
	AssessmentDate     string                    `json:"assessment_date"`
	Status             models.AssessmentStatus   `json:"status"`
	Version            int                       `json:"version"`
	PerItem            []AssessmentItemView      `json:"per_item"`
	GroupScores        map[string]GroupScoreView `json:"group_scores,omitempty"`
	OverallPercentage  *float64                  `json:"overall_percentage,omitempty"`
	OverallLetterGrade *string                   `json:"overall_letter_grade,omitempty"`
	ScoredAt           *time.Time                `json:"scored_at,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// NewAssessmentView renders an assessment. Scores are included only when authoritative,
// that is when the assessment is COMPLETED, unless withScores forces them.
func NewAssessmentView(a *models.EmployeeAssessment, withScores bool) AssessmentView {
	view := AssessmentView{
		ID:             a.ID,
		EmployeeID:     a.EmployeeID,
		TemplateID:     a.TemplateID,
		Flavor:         a.Flavor,
		AssessmentDate: a.AssessmentDate.Format(AssessmentDateLayout),
		Status:         a.Status,
		Version:        a.Version,
		PerItem:        make([]AssessmentItemView, 0, len(a.Ratings)),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	for _, r := range a.Ratings {
		gap := r.ActualLevel - r.RequiredLevel
		view.PerItem = append(view.PerItem, AssessmentItemView{
			ItemID:        r.ItemID,
			RequiredLevel: r.RequiredLevel,
			ActualLevel:   r.ActualLevel,
			Gap:           gap,
			Standing:      scoring.StandingOf(gap),
			Notes:         r.Notes,
		})
	}
	if !withScores && a.Status != models.AssessmentCompleted {
		return view
	}
	view.OverallPercentage = a.OverallPercentage
	view.OverallLetterGrade = a.OverallLetterGrade
	view.ScoredAt = a.ScoredAt
	if len(a.GroupScores) > 0 {
		view.GroupScores = make(map[string]GroupScoreView, len(a.GroupScores))
		for _, g := range a.GroupScores {
			key := g.GroupName
			if _, taken := view.GroupScores[key]; taken {
				key = g.GroupName + "#" + g.GroupID
			}
			view.GroupScores[key] = GroupScoreView{
				GroupID:       g.GroupID,
				Level:         g.Level,
				ParentID:      g.ParentID,
				PositionTotal: g.PositionTotal,
				EmployeeTotal: g.EmployeeTotal,
				Percentage:    g.Percentage,
				LetterGrade:   g.LetterGrade,
			}
		}
	}
	return view
}

// NewAssessmentViews renders list entries without scores for drafts.
func NewAssessmentViews(items []models.EmployeeAssessment) []AssessmentView {
	views := make([]AssessmentView, 0, len(items))
	for i := range items {
		views = append(views, NewAssessmentView(&items[i], false))
	}
	return views
}
