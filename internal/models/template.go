package models

import (
	"time"

	"github.com/lib/pq"
)

// RequirementTemplate is the required competency profile for a position.
type RequirementTemplate struct {
	ID          string           `db:"id" json:"id"`
	Position    string           `db:"position" json:"position"`
	GradeLevels pq.StringArray   `db:"grade_levels" json:"grade_levels"`
	Flavor      AssessmentFlavor `db:"flavor" json:"flavor"`
	IsActive    bool             `db:"is_active" json:"is_active"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
	Ratings     []TemplateRating `json:"ratings"`
}

// TemplateRating is one required level inside a template.
type TemplateRating struct {
	ID            string `db:"id" json:"id"`
	TemplateID    string `db:"template_id" json:"template_id"`
	ItemID        string `db:"item_id" json:"item_id"`
	RequiredLevel int    `db:"required_level" json:"required_level"`
	Position      int    `db:"position" json:"position"`
}

// TemplateFilter scopes template listing.
type TemplateFilter struct {
	Position string
	Flavor   AssessmentFlavor
	Active   *bool
}
