package models

import "time"

// AssessmentStatus is the lifecycle state of an employee assessment.
type AssessmentStatus string

const (
	// AssessmentDraft allows edits; stored scores are not authoritative.
	AssessmentDraft AssessmentStatus = "DRAFT"
	// AssessmentCompleted freezes ratings until reopened; scores are authoritative.
	AssessmentCompleted AssessmentStatus = "COMPLETED"
)

// GroupLevel tells whether a group score belongs to a sub group or a top group.
type GroupLevel string

const (
	GroupLevelSub GroupLevel = "SUB_GROUP"
	GroupLevelTop GroupLevel = "TOP_GROUP"
)

// EmployeeAssessment is one employee's ratings against a requirement template.
type EmployeeAssessment struct {
	ID                 string                  `db:"id" json:"id"`
	EmployeeID         string                  `db:"employee_id" json:"employee_id"`
	TemplateID         string                  `db:"template_id" json:"template_id"`
	Flavor             AssessmentFlavor        `db:"flavor" json:"flavor"`
	AssessmentDate     time.Time               `db:"assessment_date" json:"assessment_date"`
	Status             AssessmentStatus        `db:"status" json:"status"`
	OverallPercentage  *float64                `db:"overall_percentage" json:"overall_percentage,omitempty"`
	OverallLetterGrade *string                 `db:"overall_letter_grade" json:"overall_letter_grade,omitempty"`
	ScoredAt           *time.Time              `db:"scored_at" json:"scored_at,omitempty"`
	Version            int                     `db:"version" json:"version"`
	CreatedAt          time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at" json:"updated_at"`
	Requirements       []AssessmentRequirement `json:"-"`
	Ratings            []AssessmentRating      `json:"ratings"`
	GroupScores        []AssessmentGroupScore  `json:"group_scores,omitempty"`
}

// AssessmentRequirement is the template requirement captured when the assessment was created.
type AssessmentRequirement struct {
	AssessmentID  string `db:"assessment_id" json:"assessment_id"`
	ItemID        string `db:"item_id" json:"item_id"`
	RequiredLevel int    `db:"required_level" json:"required_level"`
	Position      int    `db:"position" json:"position"`
}

// AssessmentRating is one submitted actual level.
type AssessmentRating struct {
	ID            string `db:"id" json:"id"`
	AssessmentID  string `db:"assessment_id" json:"assessment_id"`
	ItemID        string `db:"item_id" json:"item_id"`
	RequiredLevel int    `db:"required_level" json:"required_level"`
	ActualLevel   int    `db:"actual_level" json:"actual_level"`
	Notes         string `db:"notes" json:"notes,omitempty"`
	Position      int    `db:"position" json:"position"`
}

// AssessmentGroupScore is a persisted group roll-up.
type AssessmentGroupScore struct {
	AssessmentID  string     `db:"assessment_id" json:"assessment_id"`
	GroupID       string     `db:"group_id" json:"group_id"`
	GroupName     string     `db:"group_name" json:"group_name"`
	Level         GroupLevel `db:"level" json:"level"`
	ParentID      *string    `db:"parent_id" json:"parent_id,omitempty"`
	PositionTotal int        `db:"position_total" json:"position_total"`
	EmployeeTotal int        `db:"employee_total" json:"employee_total"`
	Percentage    float64    `db:"percentage" json:"percentage"`
	LetterGrade   string     `db:"letter_grade" json:"letter_grade"`
	Position      int        `db:"position" json:"position"`
}

// AssessmentFilter scopes assessment listing.
type AssessmentFilter struct {
	EmployeeID string
	TemplateID string
	Status     AssessmentStatus
	Page       int
	PageSize   int
}

// AssessmentWrite describes one atomic change to an assessment and its owned rows.
type AssessmentWrite struct {
	Assessment      *EmployeeAssessment
	ExpectedVersion int
	ReplaceRatings  bool
	WriteScores     bool
}
